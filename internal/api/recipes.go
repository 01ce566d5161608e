package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tastebook-backend/internal/middleware"
	"tastebook-backend/internal/models"
	"tastebook-backend/internal/service"
)

type RecipeHandler struct {
	recipes  *service.RecipeService
	users    *service.UserService
	shopping *service.ShoppingListService
	auth     *service.AuthService
	opts     Options
}

func NewRecipeHandler(recipes *service.RecipeService, users *service.UserService, shopping *service.ShoppingListService, auth *service.AuthService, opts Options) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		users:    users,
		shopping: shopping,
		auth:     auth,
		opts:     opts,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuthMiddleware(h.auth), h.List)
		recipes.POST("", middleware.AuthMiddleware(h.auth), h.Create)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.auth), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuthMiddleware(h.auth), h.Get)
		recipes.PUT("/:id", middleware.AuthMiddleware(h.auth), h.Update)
		recipes.PATCH("/:id", middleware.AuthMiddleware(h.auth), h.Patch)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.auth), h.Delete)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.auth), h.Favorite)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.auth), h.Unfavorite)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.auth), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.auth), h.RemoveFromCart)
		recipes.GET("/:id/get_link", h.GetLink)
	}
}

// RegisterShortLinkRoute mounts the short-link resolver at the root, outside
// the /api prefix.
func (h *RecipeHandler) RegisterShortLinkRoute(router *gin.Engine) {
	router.GET("/s/:code", h.ResolveShortLink)
}

type recipeIngredientRequest struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount"`
}

type recipeRequest struct {
	Name        string                    `json:"name" binding:"required,max=256"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time"`
	Image       string                    `json:"image"`
	Tags        []uint                    `json:"tags"`
	Ingredients []recipeIngredientRequest `json:"ingredients"`
}

func (r recipeRequest) toInput() service.RecipeInput {
	ingredients := make([]service.IngredientAmount, len(r.Ingredients))
	for i, item := range r.Ingredients {
		ingredients[i] = service.IngredientAmount{ID: item.ID, Amount: item.Amount}
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		TagIDs:      r.Tags,
		Ingredients: ingredients,
	}
}

func (h *RecipeHandler) List(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	params := parsePageParams(c, h.opts.DefaultPageSize, h.opts.MaxPageSize)

	filter := service.RecipeFilter{
		AuthorID: queryUint(c, "author"),
		TagIDs:   tagIDsParam(c),
		Limit:    params.limit,
		Offset:   params.offset(),
	}
	// Favorite and cart filters only mean something for a signed-in viewer.
	if viewerID != 0 {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = viewerID
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InCartOf = viewerID
		}
	}

	recipes, total, err := h.recipes.List(filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	results, err := h.renderRecipes(c, recipes, viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageResponse(c, h.opts.base(c), params, total, results))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	recipe, err := h.recipes.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.renderRecipes(c, []models.Recipe{*recipe}, middleware.ViewerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp[0])
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewerID := middleware.ViewerID(c)
	recipe, err := h.recipes.Create(c.Request.Context(), viewerID, req.toInput())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.renderRecipes(c, []models.Recipe{*recipe}, viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp[0])
}

// recipePatchRequest is the partial-update shape; absent fields keep the
// stored values.
type recipePatchRequest struct {
	Name        *string                    `json:"name" binding:"omitempty,max=256"`
	Text        *string                    `json:"text"`
	CookingTime *int                       `json:"cooking_time"`
	Image       *string                    `json:"image"`
	Tags        *[]uint                    `json:"tags"`
	Ingredients *[]recipeIngredientRequest `json:"ingredients"`
}

func (r recipePatchRequest) toPatch() service.RecipePatch {
	patch := service.RecipePatch{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		TagIDs:      r.Tags,
	}
	if r.Ingredients != nil {
		items := make([]service.IngredientAmount, len(*r.Ingredients))
		for i, item := range *r.Ingredients {
			items[i] = service.IngredientAmount{ID: item.ID, Amount: item.Amount}
		}
		patch.Ingredients = &items
	}
	return patch
}

func (h *RecipeHandler) Patch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	var req recipePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewerID := middleware.ViewerID(c)
	recipe, err := h.recipes.Patch(c.Request.Context(), id, viewerID, req.toPatch())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.renderRecipes(c, []models.Recipe{*recipe}, viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp[0])
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewerID := middleware.ViewerID(c)
	recipe, err := h.recipes.Update(c.Request.Context(), id, viewerID, req.toInput())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.renderRecipes(c, []models.Recipe{*recipe}, viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp[0])
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	if err := h.recipes.Delete(id, middleware.ViewerID(c)); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addRelation(c, h.recipes.Favorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeRelation(c, h.recipes.Unfavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shopping.Aggregate(middleware.ViewerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	pdf, err := h.shopping.RenderPDF(items)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	code, err := h.recipes.ShortLink(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": fmt.Sprintf("%s/s/%s", h.opts.base(c), code)})
}

func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	recipeID, err := h.recipes.Resolve(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/api/recipes/%d", h.opts.base(c), recipeID))
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(userID, recipeID uint) (*models.Recipe, error)) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	recipe, err := add(middleware.ViewerID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRecipeMinifiedResponse(*recipe, h.opts.base(c)))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(userID, recipeID uint) error) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	if err := remove(middleware.ViewerID(c), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// renderRecipes projects recipes through the read shape with batched
// viewer-relative lookups.
func (h *RecipeHandler) renderRecipes(c *gin.Context, recipes []models.Recipe, viewerID uint) ([]RecipeResponse, error) {
	rIDs := recipeIDs(recipes)

	favorited, err := h.recipes.FavoriteSet(viewerID, rIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := h.recipes.CartSet(viewerID, rIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := h.users.SubscribedSet(viewerID, authorIDs(recipes))
	if err != nil {
		return nil, err
	}

	base := h.opts.base(c)
	results := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		flags := recipeFlags{favorited: favorited[r.ID], inCart: inCart[r.ID]}
		results[i] = newRecipeResponse(r, flags, subscribed[r.AuthorID], base)
	}
	return results, nil
}

// tagIDsParam accepts both repeated `tags` parameters and a single
// comma-separated list.
func tagIDsParam(c *gin.Context) []uint {
	var ids []uint
	for _, raw := range c.QueryArray("tags") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(n))
		}
	}
	return ids
}
