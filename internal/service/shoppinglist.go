package service

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"tastebook-backend/internal/models"
)

// ShoppingItem is one aggregated line of the shopping list.
type ShoppingItem struct {
	Name  string `json:"name"`
	Unit  string `json:"measurement_unit"`
	Total int    `json:"total"`
}

type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate sums ingredient amounts across every recipe in the user's
// shopping cart, grouped by (name, unit) and sorted by name.
func (s *ShoppingListService) Aggregate(userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RenderPDF renders the aggregated list as a one-line-per-item PDF.
func (s *ShoppingListService) RenderPDF(items []ShoppingItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Shopping list")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 12)
	for _, item := range items {
		pdf.Cell(0, 8, fmt.Sprintf("%s - %d %s", item.Name, item.Total, item.Unit))
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render shopping list PDF: %w", err)
	}
	return buf.Bytes(), nil
}
