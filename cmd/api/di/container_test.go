package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-management-service/internal/config"
	"user-management-service/internal/usecase/user"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DB: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			SQLitePath:   filepath.Join(t.TempDir(), "users.db"),
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
		App: config.AppConfig{
			HTTPPort:        "8080",
			ShutdownTimeout: time.Second,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 10},
		Logger:    config.LoggerConfig{Level: "warn"},
	}
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RedisClient)
	assert.True(t, c.RateLimiter.Enabled())
	assert.Len(t, c.HealthChecks(), 1)

	created, err := c.UserUC.CreateUser(context.Background(), user.CreateUserRequest{
		Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestNewContainer_NationalityRequired(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.UserUC.CreateUser(context.Background(), user.CreateUserRequest{
		Name: "John", Surname: "Doe", Email: "john@example.com",
	})
	assert.ErrorContains(t, err, "Nationality is required")
}

func TestNewContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis = config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mr.Port(), PoolSize: 2, CacheTTL: time.Minute}

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.RedisClient)
	assert.Len(t, c.HealthChecks(), 2)

	ctx := context.Background()
	created, err := c.UserUC.CreateUser(ctx, user.CreateUserRequest{
		Name: "John", Surname: "Doe", Email: "john@example.com", Nationality: "American",
	})
	require.NoError(t, err)

	_, err = c.UserUC.GetUser(ctx, user.GetUserRequest{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:1"))
	for _, check := range c.HealthChecks() {
		assert.NoError(t, check.Ping(ctx), check.Name)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "config validation failed")
}
