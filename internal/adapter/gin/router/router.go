package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-service/internal/adapter/gin/handler"
	"user-management-service/internal/adapter/gin/middleware"
	grpcmiddleware "user-management-service/internal/adapter/grpc/middleware"
)

// SetupRouter configures and returns a Gin router with all routes and middleware.
// Forwarding headers are only honoured from trustedProxies; with none, the
// client address is the TCP peer.
func SetupRouter(
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	trustedProxies []string,
	log *zap.Logger,
) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	// Health check endpoint, exempt from rate limiting
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	api.Use(middleware.RateLimiter(rateLimiter))
	{
		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)

			search := users.Group("/search")
			{
				search.GET("/email", userHandler.GetUserByEmail)
				search.GET("/name", userHandler.SearchByName)
				search.GET("/surname", userHandler.SearchBySurname)
				search.GET("/nationality", userHandler.SearchByNationality)
			}

			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.PATCH("/:id", userHandler.PatchUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	return router, nil
}
