package api

import (
	"strings"

	"tastebook-backend/internal/models"
)

// UserResponse is the read projection of a user. IsSubscribed is
// viewer-relative and always false for anonymous viewers.
type UserResponse struct {
	Email        string  `json:"email"`
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientInRecipeResponse flattens a RecipeIngredient row; ID is the
// ingredient's id, not the association row's.
type IngredientInRecipeResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full read projection of a recipe.
type RecipeResponse struct {
	ID               uint                         `json:"id"`
	Author           UserResponse                 `json:"author"`
	Ingredients      []IngredientInRecipeResponse `json:"ingredients"`
	IsFavorited      bool                         `json:"is_favorited"`
	IsInShoppingCart bool                         `json:"is_in_shopping_cart"`
	Name             string                       `json:"name"`
	Image            *string                      `json:"image"`
	Text             string                       `json:"text"`
	CookingTime      int                          `json:"cooking_time"`
	Tags             []TagResponse                `json:"tags"`
}

// RecipeMinifiedResponse is the short recipe shape used in toggle
// responses and embedded author recipe lists.
type RecipeMinifiedResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
}

type UserWithRecipesResponse struct {
	UserResponse
	Recipes      []RecipeMinifiedResponse `json:"recipes"`
	RecipesCount int64                    `json:"recipes_count"`
}

// recipeFlags carries the viewer-relative booleans for one recipe.
type recipeFlags struct {
	favorited bool
	inCart    bool
}

// absoluteMediaURL turns a stored image path into an absolute URL. Paths
// that are already absolute (S3 uploads) pass through; empty paths map to
// null in the response.
func absoluteMediaURL(base, path string) *string {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return &path
	}
	url := strings.TrimSuffix(base, "/") + "/media/" + path
	return &url
}

func newUserResponse(u models.User, isSubscribed bool, base string) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       absoluteMediaURL(base, u.Avatar),
	}
}

func newTagResponse(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func newIngredientResponse(i models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func newRecipeMinifiedResponse(r models.Recipe, base string) RecipeMinifiedResponse {
	return RecipeMinifiedResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       absoluteMediaURL(base, r.Image),
		CookingTime: r.CookingTime,
	}
}

// newRecipeResponse assumes Author, Tags and Ingredients.Ingredient are
// preloaded on the recipe.
func newRecipeResponse(r models.Recipe, flags recipeFlags, authorSubscribed bool, base string) RecipeResponse {
	ingredients := make([]IngredientInRecipeResponse, len(r.Ingredients))
	for i, row := range r.Ingredients {
		ingredients[i] = IngredientInRecipeResponse{
			ID:              row.IngredientID,
			Name:            row.Ingredient.Name,
			MeasurementUnit: row.Ingredient.MeasurementUnit,
			Amount:          row.Amount,
		}
	}

	tags := make([]TagResponse, len(r.Tags))
	for i, tag := range r.Tags {
		tags[i] = newTagResponse(tag)
	}

	return RecipeResponse{
		ID:               r.ID,
		Author:           newUserResponse(r.Author, authorSubscribed, base),
		Ingredients:      ingredients,
		IsFavorited:      flags.favorited,
		IsInShoppingCart: flags.inCart,
		Name:             r.Name,
		Image:            absoluteMediaURL(base, r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		Tags:             tags,
	}
}

func newUserWithRecipesResponse(u models.User, isSubscribed bool, recipes []models.Recipe, count int64, base string) UserWithRecipesResponse {
	minified := make([]RecipeMinifiedResponse, len(recipes))
	for i, r := range recipes {
		minified[i] = newRecipeMinifiedResponse(r, base)
	}
	return UserWithRecipesResponse{
		UserResponse: newUserResponse(u, isSubscribed, base),
		Recipes:      minified,
		RecipesCount: count,
	}
}

// recipeIDs and authorIDs extract the id sets a list projection needs for
// the batched viewer-relative lookups.
func recipeIDs(recipes []models.Recipe) []uint {
	ids := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	return ids
}

func authorIDs(recipes []models.Recipe) []uint {
	ids := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.AuthorID
	}
	return ids
}
