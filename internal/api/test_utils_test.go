package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tastebook-backend/config"
	"tastebook-backend/internal/models"
	"tastebook-backend/internal/router"
	"tastebook-backend/internal/service"
)

// testImage is a 1x1 PNG as a base64 data URI.
const testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const testJWTSecret = "test-jwt-secret"

// setupTestRouter builds the full application router over an in-memory
// sqlite database.
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:       testJWTSecret,
		MediaRoot:       t.TempDir(),
		DefaultPageSize: 6,
		MaxPageSize:     100,
	}
	engine, err := router.New(db, cfg, nil)
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}
	return engine, db
}

// createTestUser registers a user directly and returns it with a token.
func createTestUser(t *testing.T, db *gorm.DB, email, username string) (*models.User, string) {
	t.Helper()
	auth := service.NewAuthService(db, testJWTSecret)

	user, err := auth.Register(service.RegisterInput{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	})
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	token, err := auth.Login(email, "password123")
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}
	return user, token
}

// seedCatalog inserts a couple of tags and ingredients for recipe tests.
func seedCatalog(t *testing.T, db *gorm.DB) ([]models.Tag, []models.Ingredient) {
	t.Helper()

	tags := []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
	}
	if err := db.Create(&tags).Error; err != nil {
		t.Fatalf("failed to seed tags: %v", err)
	}

	ingredients := []models.Ingredient{
		{Name: "Salt", MeasurementUnit: "g"},
		{Name: "Milk", MeasurementUnit: "ml"},
		{Name: "Egg", MeasurementUnit: "pc"},
	}
	if err := db.Create(&ingredients).Error; err != nil {
		t.Fatalf("failed to seed ingredients: %v", err)
	}
	return tags, ingredients
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// recipePayload builds a valid create/update request body.
func recipePayload(tags []models.Tag, ingredients []models.Ingredient, amounts []int) map[string]interface{} {
	items := make([]map[string]interface{}, len(amounts))
	for i := range amounts {
		items[i] = map[string]interface{}{
			"id":     ingredients[i].ID,
			"amount": amounts[i],
		}
	}
	tagIDs := make([]uint, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
	}
	return map[string]interface{}{
		"name":         "Test Recipe",
		"text":         "Mix and cook.",
		"cooking_time": 10,
		"image":        testImage,
		"tags":         tagIDs,
		"ingredients":  items,
	}
}
