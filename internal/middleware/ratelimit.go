package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/domain/identity"
)

// Limiter decides whether key may make one more request. retryAfter is only
// meaningful when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// TokenBucket implements token bucket rate limiting
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) allowAt(now time.Time) (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// Refill tokens based on time passed
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	if tb.refillRate <= 0 {
		return false, time.Minute
	}
	wait := time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
	return false, wait
}

// MemoryLimiter keeps one bucket per key in process memory.
type MemoryLimiter struct {
	mu        sync.RWMutex
	buckets   map[string]*TokenBucket
	perMinute int
	now       func() time.Time
}

func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:   make(map[string]*TokenBucket),
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (l *MemoryLimiter) getBucket(key string) *TokenBucket {
	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()
	if exists {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := l.buckets[key]; exists {
		return bucket
	}
	bucket = NewTokenBucket(l.perMinute, float64(l.perMinute)/60)
	bucket.lastRefill = l.now()
	l.buckets[key] = bucket
	return bucket
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	ok, wait := l.getBucket(key).allowAt(l.now())
	return ok, wait, nil
}

// Cleanup drops buckets idle for longer than maxIdle until ctx is done.
func (l *MemoryLimiter) Cleanup(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		now := l.now()
		for key, bucket := range l.buckets {
			bucket.mu.Lock()
			if now.Sub(bucket.lastRefill) > maxIdle {
				delete(l.buckets, key)
			}
			bucket.mu.Unlock()
		}
		l.mu.Unlock()
	}
}

// RedisLimiter is a fixed one-minute window shared by every replica.
type RedisLimiter struct {
	Client    *redis.Client
	PerMinute int
	Prefix    string
	now       func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{Client: client, PerMinute: perMinute, Prefix: "ratelimit:", now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	window := now.Truncate(time.Minute)
	k := fmt.Sprintf("%s%s:%d", l.Prefix, key, window.Unix())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, time.Minute+5*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	if incr.Val() > int64(l.PerMinute) {
		return false, window.Add(time.Minute).Sub(now), nil
	}
	return true, 0, nil
}

// RateLimit throttles per authenticated user, or per client IP when the
// request is anonymous. Limiter errors fail open.
func RateLimit(l Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateKey(r)
			ok, wait, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if id, ok := identity.FromContext(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID
	}
	ip := r.RemoteAddr
	if h, _, err := net.SplitHostPort(ip); err == nil {
		ip = h
	}
	return "ip:" + ip
}
