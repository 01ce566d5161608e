package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebook-backend/internal/models"
)

func TestAggregateSumsSharedIngredients(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "cook@example.com", "cook")
	other := seedUser(t, db, "other@example.com", "other")

	salt := seedIngredient(t, db, "Salt", "g")
	milk := seedIngredient(t, db, "Milk", "ml")

	soup := seedRecipe(t, db, user, "Soup")
	bread := seedRecipe(t, db, user, "Bread")
	cake := seedRecipe(t, db, user, "Cake")

	rows := []models.RecipeIngredient{
		{RecipeID: soup.ID, IngredientID: salt.ID, Amount: 3},
		{RecipeID: bread.ID, IngredientID: salt.ID, Amount: 5},
		{RecipeID: bread.ID, IngredientID: milk.ID, Amount: 200},
		{RecipeID: cake.ID, IngredientID: salt.ID, Amount: 100},
	}
	require.NoError(t, db.Create(&rows).Error)

	// Soup and bread are in the cart; the cake belongs to someone else's.
	carts := []models.ShoppingCart{
		{UserID: user.ID, RecipeID: soup.ID},
		{UserID: user.ID, RecipeID: bread.ID},
		{UserID: other.ID, RecipeID: cake.ID},
	}
	require.NoError(t, db.Create(&carts).Error)

	items, err := NewShoppingListService(db).Aggregate(user.ID)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, ShoppingItem{Name: "Milk", Unit: "ml", Total: 200}, items[0])
	assert.Equal(t, ShoppingItem{Name: "Salt", Unit: "g", Total: 8}, items[1])
}

func TestAggregateEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "cook@example.com", "cook")

	items, err := NewShoppingListService(db).Aggregate(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRenderPDF(t *testing.T) {
	svc := NewShoppingListService(nil)

	data, err := svc.RenderPDF([]ShoppingItem{
		{Name: "Salt", Unit: "g", Total: 8},
		{Name: "Milk", Unit: "ml", Total: 200},
	})
	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}
