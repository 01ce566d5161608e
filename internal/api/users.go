package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tastebook-backend/internal/middleware"
	"tastebook-backend/internal/models"
	"tastebook-backend/internal/service"
)

type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
	opts  Options
}

func NewUserHandler(users *service.UserService, auth *service.AuthService, opts Options) *UserHandler {
	return &UserHandler{
		users: users,
		auth:  auth,
		opts:  opts,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", middleware.OptionalAuthMiddleware(h.auth), h.List)
		users.GET("/me", middleware.AuthMiddleware(h.auth), h.Me)
		users.POST("/set_password", middleware.AuthMiddleware(h.auth), h.SetPassword)
		users.PUT("/me/avatar", middleware.AuthMiddleware(h.auth), h.SetAvatar)
		users.DELETE("/me/avatar", middleware.AuthMiddleware(h.auth), h.DeleteAvatar)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.auth), h.Subscriptions)
		users.GET("/:id", middleware.OptionalAuthMiddleware(h.auth), h.Get)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.auth), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.auth), h.Unsubscribe)
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(*user, false, h.opts.base(c)))
}

func (h *UserHandler) List(c *gin.Context) {
	params := parsePageParams(c, h.opts.DefaultPageSize, h.opts.MaxPageSize)

	users, total, err := h.users.List(params.limit, params.offset())
	if err != nil {
		abortWithError(c, err)
		return
	}

	viewerID := middleware.ViewerID(c)
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := h.users.SubscribedSet(viewerID, ids)
	if err != nil {
		abortWithError(c, err)
		return
	}

	base := h.opts.base(c)
	results := make([]UserResponse, len(users))
	for i, u := range users {
		results[i] = newUserResponse(u, subscribed[u.ID], base)
	}

	c.JSON(http.StatusOK, newPageResponse(c, base, params, total, results))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	user, err := h.users.Get(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	viewerID := middleware.ViewerID(c)
	subscribed, err := h.users.SubscribedSet(viewerID, []uint{user.ID})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(*user, subscribed[user.ID], h.opts.base(c)))
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Get(middleware.ViewerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(*user, false, h.opts.base(c)))
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.SetPassword(middleware.ViewerID(c), req.CurrentPassword, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type setAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req setAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.users.SetAvatar(c.Request.Context(), middleware.ViewerID(c), req.Avatar)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar": absoluteMediaURL(h.opts.base(c), path)})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(middleware.ViewerID(c)); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	params := parsePageParams(c, h.opts.DefaultPageSize, h.opts.MaxPageSize)

	authors, total, err := h.users.Subscriptions(viewerID, params.limit, params.offset())
	if err != nil {
		abortWithError(c, err)
		return
	}

	base := h.opts.base(c)
	recipesLimit := recipesLimitParam(c)
	results := make([]UserWithRecipesResponse, len(authors))
	for i, author := range authors {
		// Everyone on this page is by definition subscribed-to.
		resp, err := h.userWithRecipes(author, true, recipesLimit, base)
		if err != nil {
			abortWithError(c, err)
			return
		}
		results[i] = resp
	}

	c.JSON(http.StatusOK, newPageResponse(c, base, params, total, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	author, err := h.users.Subscribe(middleware.ViewerID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp, err := h.userWithRecipes(*author, true, recipesLimitParam(c), h.opts.base(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.users.Unsubscribe(middleware.ViewerID(c), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) userWithRecipes(author models.User, subscribed bool, recipesLimit int, base string) (UserWithRecipesResponse, error) {
	recipes, err := h.users.RecipesByAuthor(author.ID, recipesLimit)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}
	count, err := h.users.RecipeCount(author.ID)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}
	return newUserWithRecipesResponse(author, subscribed, recipes, count, base), nil
}

// recipesLimitParam caps the embedded recipe list; 0 means uncapped.
func recipesLimitParam(c *gin.Context) int {
	value := c.Query("recipes_limit")
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
