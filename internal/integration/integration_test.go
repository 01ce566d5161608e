package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebook-backend/config"
	"tastebook-backend/internal/models"
	"tastebook-backend/internal/router"
	"tastebook-backend/internal/testhelpers"
)

const testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TestRecipeLifecycle walks the main user journey against a real postgres
// instance: register, login, publish a recipe, favorite it, put it in the
// cart and export the shopping list.
func TestRecipeLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		BaseURL:         "http://tastebook.test",
		JWTSecret:       "integration-secret",
		MediaRoot:       t.TempDir(),
		DefaultPageSize: 6,
		MaxPageSize:     100,
	}
	engine, err := router.New(db, cfg, nil)
	require.NoError(t, err)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}
	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
		return body
	}

	// Catalog fixtures.
	tag := models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
	require.NoError(t, db.Create(&tag).Error)
	salt := models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&salt).Error)

	// Register and log in.
	w := do("POST", "/api/users", "", map[string]interface{}{
		"email":      "cook@example.com",
		"username":   "cook",
		"first_name": "Chef",
		"last_name":  "Cook",
		"password":   "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do("POST", "/api/auth/token/login", "", map[string]string{
		"email":    "cook@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(w)["auth_token"].(string)
	require.NotEmpty(t, token)

	// Publish a recipe.
	w = do("POST", "/api/recipes", token, map[string]interface{}{
		"name":         "Salted Soup",
		"text":         "Boil water, add salt.",
		"cooking_time": 15,
		"image":        testImage,
		"tags":         []uint{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": salt.ID, "amount": 8},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(w)
	recipeID := uint(created["id"].(float64))
	assert.Contains(t, created["image"], "http://tastebook.test/media/")

	// Favorite and cart toggles.
	w = do("POST", fmt.Sprintf("/api/recipes/%d/favorite", recipeID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do("POST", fmt.Sprintf("/api/recipes/%d/shopping_cart", recipeID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// The viewer-relative flags come back set.
	w = do("GET", fmt.Sprintf("/api/recipes/%d", recipeID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(w)
	assert.Equal(t, true, detail["is_favorited"])
	assert.Equal(t, true, detail["is_in_shopping_cart"])

	// Shopping list export.
	w = do("GET", "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", string(w.Body.Bytes()[:4]))

	// Short link resolves back to the recipe.
	w = do("GET", fmt.Sprintf("/api/recipes/%d/get_link", recipeID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	short := decode(w)["short-link"].(string)
	assert.Contains(t, short, "http://tastebook.test/s/")
}

// TestSubscriptionFlow covers following an author and listing subscriptions
// with embedded recipes on postgres.
func TestSubscriptionFlow(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:       "integration-secret",
		MediaRoot:       t.TempDir(),
		DefaultPageSize: 6,
		MaxPageSize:     100,
	}
	engine, err := router.New(db, cfg, nil)
	require.NoError(t, err)

	register := func(email, username string) string {
		payload, _ := json.Marshal(map[string]interface{}{
			"email":      email,
			"username":   username,
			"first_name": "Test",
			"last_name":  "User",
			"password":   "password123",
		})
		req := httptest.NewRequest("POST", "/api/users", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		login, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
		req = httptest.NewRequest("POST", "/api/auth/token/login", bytes.NewReader(login))
		req.Header.Set("Content-Type", "application/json")
		w = httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body["auth_token"]
	}

	register("author@example.com", "author")
	fanToken := register("fan@example.com", "fan")

	var author models.User
	require.NoError(t, db.Where("username = ?", "author").First(&author).Error)

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/users/%d/subscribe", author.ID), nil)
	req.Header.Set("Authorization", "Bearer "+fanToken)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req = httptest.NewRequest("GET", "/api/users/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+fanToken)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int                      `json:"count"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "author", page.Results[0]["username"])
	assert.Equal(t, true, page.Results[0]["is_subscribed"])
}
