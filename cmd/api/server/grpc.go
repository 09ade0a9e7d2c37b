package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	ginhandler "user-management-service/internal/adapter/gin/handler"
	"user-management-service/internal/adapter/grpc/middleware"
	"user-management-service/pkg/logger"
)

// ServiceName is the name the gRPC health service reports for this service.
const ServiceName = "user.UserService"

// SetupGRPC creates the gRPC server exposing the standard health service
func SetupGRPC(rateLimiter *middleware.RateLimiter, healthServer *health.Server) *grpc.Server {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return grpcServer
}

// WatchHealth runs the dependency checks every interval and publishes the result
// on the health server, both for the overall server ("") and for ServiceName.
// It returns when ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, checks []ginhandler.HealthCheck, interval time.Duration, l *zap.Logger) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		for _, check := range checks {
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := check.Ping(pingCtx)
			cancel()
			if err != nil {
				l.Warn("dependency unhealthy", zap.String("check", check.Name), zap.Error(err))
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}

	update()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
