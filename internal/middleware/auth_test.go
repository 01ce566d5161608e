package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	claims *TokenClaims
	err    error
}

func (s *stubValidator) ValidateToken(token string) (*TokenClaims, error) {
	return s.claims, s.err
}

func serve(t *testing.T, handler gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var viewer uint
	engine := gin.New()
	engine.GET("/", handler, func(c *gin.Context) {
		viewer = ViewerID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w, viewer
}

func TestAuthMiddleware(t *testing.T) {
	valid := &stubValidator{claims: &TokenClaims{UserID: 42}}
	invalid := &stubValidator{err: errors.New("expired")}

	w, viewer := serve(t, AuthMiddleware(valid), "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(42), viewer)

	w, _ = serve(t, AuthMiddleware(valid), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = serve(t, AuthMiddleware(valid), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = serve(t, AuthMiddleware(invalid), "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	valid := &stubValidator{claims: &TokenClaims{UserID: 7}}
	invalid := &stubValidator{err: errors.New("expired")}

	// Anonymous requests pass through with viewer id zero.
	w, viewer := serve(t, OptionalAuthMiddleware(valid), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, viewer)

	w, viewer = serve(t, OptionalAuthMiddleware(valid), "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), viewer)

	// A token that is present but invalid is still an error.
	w, _ = serve(t, OptionalAuthMiddleware(invalid), "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
