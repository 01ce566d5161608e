package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenClaims carries the identity extracted from a validated JWT.
type TokenClaims struct {
	UserID uint
}

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*TokenClaims, error)
}

const userIDKey = "user_id"

// AuthMiddleware creates a middleware that requires a valid bearer token.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, validator)
		if !ok {
			return
		}
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware populates the viewer identity when a valid bearer
// token is present but lets anonymous requests through. A malformed or
// invalid token is still rejected.
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, validator)
		if !ok {
			return
		}
		if claims != nil {
			c.Set(userIDKey, claims.UserID)
		}
		c.Next()
	}
}

// bearerClaims parses the Authorization header. It returns (nil, true) when
// the header is absent, and (nil, false) after writing an error response.
func bearerClaims(c *gin.Context, validator TokenValidator) (*TokenClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, true
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := validator.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		c.Abort()
		return nil, false
	}
	return claims, true
}

// ViewerID returns the authenticated user id stored by the auth middleware,
// or 0 for anonymous requests.
func ViewerID(c *gin.Context) uint {
	if v, exists := c.Get(userIDKey); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
