package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

// tokenBucketScript refills the bucket for the elapsed time, then tries to take
// one token. Bucket state is {last_refill, tokens}; now is in milliseconds.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill) / 1000
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'last_refill', now, 'tokens', tostring(tokens))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RateLimiter is a token bucket limiter shared by the gRPC and HTTP surfaces.
// Buckets live in Redis when a client is configured so that every replica sees
// the same counts; without Redis, or while Redis is failing, per-key
// golang.org/x/time/rate limiters are used instead.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger

	mu        sync.Mutex
	local     map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

// localBucket is an in-process bucket and the last time it was used.
type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter. client may be nil.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
		local:  make(map[string]*localBucket),
		now:    time.Now,
	}
}

// Enabled reports whether requests are being limited at all.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.config.Enabled
}

// Config returns the limiter settings.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Allow takes one token from the bucket identified by key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if !rl.Enabled() {
		return true
	}

	if rl.client != nil {
		allowed, err := tokenBucketScript.Run(ctx, rl.client, []string{"ratelimit:tb:" + key},
			rl.config.RequestsPerSecond,
			rl.config.BurstCapacity,
			rl.now().UnixMilli(),
			rl.bucketTTLSeconds(),
		).Int64()
		if err == nil {
			return allowed == 1
		}
		rl.log.Warn("rate limiter redis error, using local limiter",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return rl.localLimiter(key).AllowN(rl.now(), 1)
}

// bucketTTLSeconds keeps an idle bucket around for twice the time it takes to refill.
func (rl *RateLimiter) bucketTTLSeconds() int {
	refill := float64(rl.config.BurstCapacity) / rl.config.RequestsPerSecond
	return int(math.Max(1, math.Ceil(refill*2)))
}

// localIdleTTL is how long an unused local bucket is kept. A bucket idle for
// longer than its refill time is full again, so dropping it changes nothing.
func (rl *RateLimiter) localIdleTTL() time.Duration {
	return max(time.Minute, time.Duration(rl.bucketTTLSeconds())*time.Second)
}

func (rl *RateLimiter) localLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	b, ok := rl.local[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstCapacity)}
		rl.local[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweepLocked drops idle buckets, at most once per idle TTL. rl.mu must be held.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	ttl := rl.localIdleTTL()
	if now.Sub(rl.lastSweep) < ttl {
		return
	}
	rl.lastSweep = now

	for key, b := range rl.local {
		if now.Sub(b.lastSeen) > ttl {
			delete(rl.local, key)
		}
	}
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !rl.Enabled() {
			return handler(ctx, req)
		}

		clientIP := getClientIP(ctx)

		// Rate limit key: {method}:{ip}
		key := fmt.Sprintf("%s:%s", info.FullMethod, clientIP)

		if !rl.Allow(ctx, key) {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("method", info.FullMethod),
				zap.Float64("limit", rl.config.RequestsPerSecond),
			)
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded: %.0f requests/second (burst capacity: %d)",
				rl.config.RequestsPerSecond, rl.config.BurstCapacity)
		}

		return handler(ctx, req)
	}
}

// getClientIP returns the host of the transport peer. Forwarding metadata is
// ignored: clients set it freely, and the port changes with every connection.
func getClientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}

	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
