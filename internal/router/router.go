package router

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"contact-relay-go/internal/config"
	"contact-relay-go/internal/handler"
	"contact-relay-go/internal/middleware"
)

// SetupRouter configures the Gin router with routes and middleware
func SetupRouter(h *handler.Handlers, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.ClientIP(cfg.ClientIPHeader))
	r.Use(middleware.Logger())
	r.Use(middleware.Sentry())
	r.Use(middleware.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	limiter := middleware.NewIPRateLimiter(cfg.BurstRPS, cfg.Burst)
	h.SetupRoutes(r, limiter.Middleware(), middleware.BodyLimit(middleware.MaxBodyBytes))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"POST", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
