package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tastebook-backend/internal/service"
)

// Options carries per-request presentation settings shared by the handlers.
type Options struct {
	// BaseURL is the externally visible origin; when empty it is derived
	// from the incoming request.
	BaseURL         string
	DefaultPageSize int
	MaxPageSize     int
}

func (o Options) base(c *gin.Context) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// abortWithError maps service errors onto the HTTP error taxonomy:
// validation and toggle conflicts to 400, forbidden to 403, missing
// entities to 404, everything else to 500.
func abortWithError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not the author of this recipe"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
