package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(mr *miniredis.Miniredis) Config {
	return Config{
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 2,
	}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), testConfig(mr), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(mr)
	mr.Close()

	_, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestHealthCheck_AfterServerStops(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), testConfig(mr), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}
