package service

import (
	"context"
	"errors"

	"github.com/lithammer/shortuuid/v4"
	"gorm.io/gorm"

	"tastebook-backend/internal/models"
)

type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
	}
}

// IngredientAmount is one (ingredient id, amount) pair of a recipe write.
type IngredientAmount struct {
	ID     uint
	Amount int
}

// RecipeInput is the write shape for recipe create and update.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	// Image is a base64 data URI; empty on update keeps the stored image.
	Image       string
	TagIDs      []uint
	Ingredients []IngredientAmount
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	AuthorID    uint
	TagIDs      []uint
	FavoritedBy uint
	InCartOf    uint
	Limit       int
	Offset      int
}

func (s *RecipeService) Get(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// List returns a filtered page of recipes, newest first, plus the total
// count matching the filter.
func (s *RecipeService) List(f RecipeFilter) ([]models.Recipe, int64, error) {
	query := s.db.Model(&models.Recipe{})

	if f.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagIDs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Where("recipe_tags.tag_id IN ?", f.TagIDs).
			Distinct("recipes.*")
	}
	if f.FavoritedBy != 0 {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", f.FavoritedBy)
	}
	if f.InCartOf != 0 {
		query = query.
			Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
			Where("shopping_carts.user_id = ?", f.InCartOf)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Distinct("recipes.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("recipes.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&recipes).Error
	return recipes, total, err
}

// Create validates the input, stores the image, and writes the recipe with
// its tag and ingredient associations in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, input RecipeInput) (*models.Recipe, error) {
	if err := s.validate(input, true); err != nil {
		return nil, err
	}

	imagePath, err := s.images.SaveDataURI(ctx, input.Image, "recipes/images")
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Image:       imagePath,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := s.resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		if err := s.checkIngredientsExist(tx, input.Ingredients); err != nil {
			return err
		}

		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, &recipe, tags); err != nil {
			return err
		}
		return s.insertIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(recipe.ID)
}

// Update rewrites the recipe. Only the author may update; the ingredient
// and tag sets are replaced wholesale inside one transaction.
func (s *RecipeService) Update(ctx context.Context, id, userID uint, input RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	if err := s.validate(input, input.Image != ""); err != nil {
		return nil, err
	}

	imagePath := recipe.Image
	if input.Image != "" {
		imagePath, err = s.images.SaveDataURI(ctx, input.Image, "recipes/images")
		if err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		tags, err := s.resolveTags(tx, input.TagIDs)
		if err != nil {
			return err
		}
		if err := s.checkIngredientsExist(tx, input.Ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         input.Name,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
			"image":        imagePath,
		}
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe, tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return s.insertIngredients(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// RecipePatch holds the fields of a partial update. Nil fields keep the
// stored values; a provided ingredient or tag list is replaced wholesale.
type RecipePatch struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	TagIDs      *[]uint
	Ingredients *[]IngredientAmount
}

// Patch applies a partial update. Only the author may patch; fields absent
// from the request leave the recipe untouched.
func (s *RecipeService) Patch(ctx context.Context, id, userID uint, patch RecipePatch) (*models.Recipe, error) {
	recipe, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	if patch.CookingTime != nil && *patch.CookingTime < 1 {
		return nil, validationError("cooking_time must be at least 1")
	}
	if patch.Ingredients != nil {
		if err := validateIngredients(*patch.Ingredients); err != nil {
			return nil, err
		}
	}

	imagePath := recipe.Image
	if patch.Image != nil && *patch.Image != "" {
		imagePath, err = s.images.SaveDataURI(ctx, *patch.Image, "recipes/images")
		if err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"image": imagePath}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Text != nil {
			updates["text"] = *patch.Text
		}
		if patch.CookingTime != nil {
			updates["cooking_time"] = *patch.CookingTime
		}
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return err
		}

		if patch.TagIDs != nil && len(*patch.TagIDs) > 0 {
			tags, err := s.resolveTags(tx, *patch.TagIDs)
			if err != nil {
				return err
			}
			if err := replaceTags(tx, recipe, tags); err != nil {
				return err
			}
		}
		if patch.Ingredients != nil {
			if err := s.checkIngredientsExist(tx, *patch.Ingredients); err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			return s.insertIngredients(tx, recipe.ID, *patch.Ingredients)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Delete removes the recipe and its association rows. Author only.
func (s *RecipeService) Delete(id, userID uint) error {
	recipe, err := s.Get(id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, assoc := range []interface{}{
			&models.RecipeIngredient{},
			&models.Favorite{},
			&models.ShoppingCart{},
			&models.ShortLink{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(assoc).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
}

// Favorite adds the recipe to the user's favorites and returns it.
func (s *RecipeService) Favorite(userID, recipeID uint) (*models.Recipe, error) {
	return s.addRelation(userID, recipeID, &models.Favorite{}, "recipe is already in favorites")
}

func (s *RecipeService) Unfavorite(userID, recipeID uint) error {
	return s.removeRelation(userID, recipeID, &models.Favorite{}, "recipe is not in favorites")
}

// AddToCart puts the recipe into the user's shopping cart and returns it.
func (s *RecipeService) AddToCart(userID, recipeID uint) (*models.Recipe, error) {
	return s.addRelation(userID, recipeID, &models.ShoppingCart{}, "recipe is already in the shopping cart")
}

func (s *RecipeService) RemoveFromCart(userID, recipeID uint) error {
	return s.removeRelation(userID, recipeID, &models.ShoppingCart{}, "recipe is not in the shopping cart")
}

// FavoriteSet reports which of the given recipe ids the viewer favorited.
func (s *RecipeService) FavoriteSet(viewerID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.relationSet(viewerID, recipeIDs, &models.Favorite{})
}

// CartSet reports which of the given recipe ids are in the viewer's cart.
func (s *RecipeService) CartSet(viewerID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.relationSet(viewerID, recipeIDs, &models.ShoppingCart{})
}

// ShortLink returns the persisted short code for the recipe, generating
// one on first request.
func (s *RecipeService) ShortLink(recipeID uint) (string, error) {
	if _, err := s.Get(recipeID); err != nil {
		return "", err
	}

	var link models.ShortLink
	err := s.db.Where("recipe_id = ?", recipeID).First(&link).Error
	if err == nil {
		return link.Code, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	link = models.ShortLink{
		Code:     shortuuid.New()[:8],
		RecipeID: recipeID,
	}
	if err := s.db.Create(&link).Error; err != nil {
		// A concurrent first request may have won the insert; the
		// recipe_id unique index makes the loser's Create fail, so
		// return the winner's persisted code instead.
		var existing models.ShortLink
		if ferr := s.db.Where("recipe_id = ?", recipeID).First(&existing).Error; ferr == nil {
			return existing.Code, nil
		}
		return "", err
	}
	return link.Code, nil
}

// Resolve maps a short code back to its recipe id.
func (s *RecipeService) Resolve(code string) (uint, error) {
	var link models.ShortLink
	if err := s.db.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return link.RecipeID, nil
}

func (s *RecipeService) validate(input RecipeInput, requireImage bool) error {
	if input.CookingTime < 1 {
		return validationError("cooking_time must be at least 1")
	}
	if err := validateIngredients(input.Ingredients); err != nil {
		return err
	}
	if requireImage && input.Image == "" {
		return validationError("image is required")
	}
	return nil
}

func validateIngredients(items []IngredientAmount) error {
	if len(items) == 0 {
		return validationError("at least one ingredient is required")
	}
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			return validationError("ingredients must not repeat")
		}
		seen[item.ID] = true
		if item.Amount < 1 {
			return validationError("ingredient amount must be at least 1")
		}
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	assoc := tx.Model(recipe).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func (s *RecipeService) resolveTags(tx *gorm.DB, tagIDs []uint) ([]models.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, validationError("unknown tag id")
	}
	return tags, nil
}

func (s *RecipeService) checkIngredientsExist(tx *gorm.DB, items []IngredientAmount) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return validationError("unknown ingredient id")
	}
	return nil
}

func (s *RecipeService) insertIngredients(tx *gorm.DB, recipeID uint, items []IngredientAmount) error {
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	return tx.Create(&rows).Error
}

func (s *RecipeService) addRelation(userID, recipeID uint, relation interface{}, dupMessage string) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(relation)
		if existing.Error == nil {
			return validationError(dupMessage)
		}
		if !errors.Is(existing.Error, gorm.ErrRecordNotFound) {
			return existing.Error
		}
		return tx.Model(relation).Create(map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return recipe, nil
}

func (s *RecipeService) removeRelation(userID, recipeID uint, relation interface{}, missingMessage string) error {
	if _, err := s.Get(recipeID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(relation)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return validationError(missingMessage)
		}
		return nil
	})
}

func (s *RecipeService) relationSet(viewerID uint, recipeIDs []uint, relation interface{}) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == 0 || len(recipeIDs) == 0 {
		return set, nil
	}

	var found []uint
	err := s.db.Model(relation).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &found).Error
	if err != nil {
		return nil, err
	}

	for _, id := range found {
		set[id] = true
	}
	return set, nil
}
