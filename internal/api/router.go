package api

import (
	"github.com/gin-gonic/gin"

	"Mnemo/internal/config"
	"Mnemo/pkg/ratelimiter"
)

// NewRouter builds the gin engine with the chat and health routes.
func NewRouter(cfg *config.AppConfig, handler *Handler) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handler.Healthz)

	v1 := router.Group("/api/v1")
	if cfg.Middleware.RateLimiter.Enabled {
		limiter := ratelimiter.NewTokenBucket(
			cfg.Middleware.RateLimiter.Rate,
			cfg.Middleware.RateLimiter.Capacity,
		)
		v1.Use(RateLimit(limiter))
	}
	v1.POST("/chat", handler.Chat)
	v1.GET("/trending", handler.Trending)

	return router
}
