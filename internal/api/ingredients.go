package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tastebook-backend/internal/models"
)

// IngredientHandler serves the read-only ingredient catalog with
// name-prefix search.
type IngredientHandler struct {
	db *gorm.DB
}

func NewIngredientHandler(db *gorm.DB) *IngredientHandler {
	return &IngredientHandler{db: db}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("", h.List)
		ingredients.GET("/:id", h.Get)
	}
}

func (h *IngredientHandler) List(c *gin.Context) {
	query := h.db.Order("name")
	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE ?", strings.ToLower(name)+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}

	results := make([]IngredientResponse, len(ingredients))
	for i, ingredient := range ingredients {
		results[i] = newIngredientResponse(ingredient)
	}
	c.JSON(http.StatusOK, results)
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ingredient not found"})
		return
	}

	var ingredient models.Ingredient
	if err := h.db.First(&ingredient, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ingredient not found"})
		return
	}
	c.JSON(http.StatusOK, newIngredientResponse(ingredient))
}
