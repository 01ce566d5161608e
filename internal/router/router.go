package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tastebook-backend/config"
	"tastebook-backend/internal/api"
	"tastebook-backend/internal/database"
	"tastebook-backend/internal/middleware"
	"tastebook-backend/internal/service"
)

// New configures the application routes.
func New(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) (*gin.Engine, error) {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", "Accept", "Origin"},
		MaxAge:          24 * time.Hour,
	}))

	// Services
	imageService, err := service.NewImageService(cfg)
	if err != nil {
		return nil, err
	}
	authService := service.NewAuthService(db, cfg.JWTSecret)
	userService := service.NewUserService(db, imageService)
	recipeService := service.NewRecipeService(db, imageService)
	shoppingService := service.NewShoppingListService(db)

	opts := api.Options{
		BaseURL:         cfg.BaseURL,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}

	// Handlers
	authHandler := api.NewAuthHandler(authService)
	userHandler := api.NewUserHandler(userService, authService, opts)
	recipeHandler := api.NewRecipeHandler(recipeService, userService, shoppingService, authService, opts)
	tagHandler := api.NewTagHandler(db)
	ingredientHandler := api.NewIngredientHandler(db)

	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Local image storage is served under /media; S3 uploads carry
	// absolute URLs and never hit this route.
	if cfg.S3Bucket == "" {
		router.Static("/media", cfg.MediaRoot)
	}

	apiGroup := router.Group("/api")
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window: time.Minute,
			Limit:  120,
		})
		apiGroup.Use(limiter.Middleware())
	}

	authHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterRoutes(apiGroup)
	tagHandler.RegisterRoutes(apiGroup)
	ingredientHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterShortLinkRoute(router)

	return router, nil
}
