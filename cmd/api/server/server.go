package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"user-management-service/cmd/api/di"
	"user-management-service/internal/config"
)

// healthInterval is how often the gRPC health status is refreshed
const healthInterval = 10 * time.Second

// Server struct holds all server dependencies
type Server struct {
	Config    *config.Config
	Logger    *zap.Logger
	Container *di.Container
	Gin       *http.Server
	GRPC      *grpc.Server
	Health    *health.Server
	HTTP      *http.Server

	gatewayConn *grpc.ClientConn
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, container *di.Container) (*Server, error) {
	ginServer, err := SetupGinServer(
		container.GinHandler,
		container.HealthHandler,
		container.RateLimiter,
		":"+cfg.App.HTTPPort,
		cfg.Logger.Environment,
		cfg.App.TrustedProxies,
		l,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up Gin server: %w", err)
	}

	s := &Server{
		Config:    cfg,
		Logger:    l,
		Container: container,
		Gin:       ginServer,
	}

	if cfg.App.GRPCEnabled {
		s.Health = health.NewServer()
		s.GRPC = SetupGRPC(container.RateLimiter, s.Health)
	}

	return s, nil
}

// Start runs every configured server until ctx is done or one of them fails,
// then shuts all of them down within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	var lis net.Listener
	if s.GRPC != nil {
		var err error
		lis, err = (&net.ListenConfig{}).Listen(ctx, "tcp", s.grpcAddress())
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}

		httpServer, conn, err := SetupHTTPGateway(s.dialAddress(), s.gatewayAddress(), s.Logger)
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("failed to start HTTP gateway: %w", err)
		}
		s.HTTP, s.gatewayConn = httpServer, conn
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		return serveHTTP(s.Gin)
	})

	if s.GRPC != nil {
		g.Go(func() error {
			s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
			if err := s.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			WatchHealth(gctx, s.Health, s.Container.HealthChecks(), healthInterval, s.Logger)
			return nil
		})

		g.Go(func() error {
			s.Logger.Info("ops gateway running", zap.String("address", s.gatewayAddress()))
			return serveHTTP(s.HTTP)
		})
	}

	// Stop everything on cancellation or on the first server error
	g.Go(func() error {
		<-gctx.Done()
		s.Logger.Info("starting graceful shutdown", zap.Duration("timeout", s.Config.App.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.App.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops every server, waiting for in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	// Shutdown HTTP gateway
	if s.HTTP != nil {
		s.Logger.Info("shutting down HTTP gateway...")
		if err := s.HTTP.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	if s.gatewayConn != nil {
		if err := s.gatewayConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("gateway connection close: %w", err))
		}
	}

	// Shutdown Gin server
	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	// Shutdown gRPC server
	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		s.Health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
		}
	}

	return errors.Join(errs...)
}

func serveHTTP(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}

// dialAddress is the address the gateway uses to reach the gRPC server
func (s *Server) dialAddress() string {
	return "localhost:" + s.Config.App.GRPCPort
}

// gatewayAddress returns the HTTP gateway address
func (s *Server) gatewayAddress() string {
	return ":" + s.Config.App.GatewayPort
}
