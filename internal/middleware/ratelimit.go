package middleware

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the limiter's Redis
// backend is unavailable.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed rejects the request with 503.
	FailClosed
)

// rateLimitKey namespaces counters so multiple apps can share one Redis.
func rateLimitKey(resource, caller string) string {
	return "mindbridge:rl:" + resource + ":" + caller
}

// CheckRateLimit counts one hit against resource/caller and reports whether
// the caller is still under the limit. Counting is a fixed window: INCR plus
// EXPIRE on first hit. Limits are bypassed entirely when APP_ENV is test,
// development, or stress so local workflows and load runs are not throttled.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, caller string, limit int, window time.Duration) (bool, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	switch env {
	case "test", "development", "stress":
		return true, nil
	}

	if rdb == nil {
		return false, fmt.Errorf("rate limiter has no redis client")
	}

	key := rateLimitKey(resource, caller)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces limit requests per window, fail-open. Authenticated
// requests are keyed by user ID, anonymous ones by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit unavailability policy.
// The optional name labels the counter; without it the request path is used,
// which splits counters across parameterized routes.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		caller := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			caller = fmt.Sprintf("user:%v", uid)
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(ctx, rdb, resource, caller, limit, window)
		if err != nil {
			if policy == FailClosed {
				log.Printf("rate limiter unavailable, failing closed for %s: %v", resource, err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
