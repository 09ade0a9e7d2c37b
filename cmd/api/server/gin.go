package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "user-management-service/internal/adapter/gin/handler"
	ginrouter "user-management-service/internal/adapter/gin/router"
	grpcmiddleware "user-management-service/internal/adapter/grpc/middleware"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	health *ginhandler.HealthHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	ginAddr string,
	environment string,
	trustedProxies []string,
	l *zap.Logger,
) (*http.Server, error) {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router with all middleware and routes
	router, err := ginrouter.SetupRouter(handler, health, rateLimiter, trustedProxies, l)
	if err != nil {
		return nil, err
	}

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}
