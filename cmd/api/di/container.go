package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-management-service/cmd/api/infrastructure"
	"user-management-service/internal/adapter/cache"
	"user-management-service/internal/adapter/db/postgres"
	ginhandler "user-management-service/internal/adapter/gin/handler"
	"user-management-service/internal/adapter/grpc/middleware"
	"user-management-service/internal/adapter/repository/cached"
	"user-management-service/internal/config"
	"user-management-service/internal/usecase/user"
	redisclient "user-management-service/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client
	UserUC        user.UserUsecase
	RateLimiter   *middleware.RateLimiter
	GinHandler    *ginhandler.UserHandler
	HealthHandler *ginhandler.HealthHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	// Initialize database
	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	var repo user.Repository = postgres.NewUserRepoPG(db, l)
	var limiterClient *redis.Client

	// Redis is optional: without it reads go straight to the database and
	// rate limiting stays in-process
	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		limiterClient = rdb.Client

		userCache := cache.NewRedisUserCache(rdb.Client, cfg.Redis.CacheTTL, l)
		repo = cached.NewCachedUserRepository(repo, userCache, l)
	}

	// Initialize use case
	c.UserUC = user.New(repo, l, user.WithNationalityRequired())

	// Initialize rate limiter
	c.RateLimiter = middleware.NewRateLimiter(
		limiterClient,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.Burst,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)

	// Initialize Gin handlers
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)
	c.HealthHandler = ginhandler.NewHealthHandler(l, c.HealthChecks()...)

	return c, nil
}

// HealthChecks returns a health check for every external dependency in use.
func (c *Container) HealthChecks() []ginhandler.HealthCheck {
	checks := []ginhandler.HealthCheck{{
		Name: "database",
		Ping: func(ctx context.Context) error {
			return infrastructure.PingDatabase(ctx, c.DB)
		},
	}}
	if c.RedisClient != nil {
		checks = append(checks, ginhandler.HealthCheck{
			Name:  "redis",
			Ping: c.RedisClient.HealthCheck,
		})
	}
	return checks
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
