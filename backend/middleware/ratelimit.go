package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/memoralabs/memora/backend/utils"
)

// rateLimiter admits at most limit requests per client key within a
// sliding window. Timestamps are pruned in place on every check, so a
// key's slice never grows past limit+1.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go rl.evictIdle(5 * time.Minute)
	return rl
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	stamps := rl.clients[key]

	// Timestamps are appended in order; drop the expired prefix.
	expired := 0
	for expired < len(stamps) && now.Sub(stamps[expired]) >= rl.window {
		expired++
	}
	stamps = append(stamps[:0], stamps[expired:]...)

	if len(stamps) >= rl.limit {
		rl.clients[key] = stamps
		return false
	}
	rl.clients[key] = append(stamps, now)
	return true
}

// evictIdle drops keys that have gone a full window without a request,
// keeping the map bounded by active clients.
func (rl *rateLimiter) evictIdle(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, stamps := range rl.clients {
			if len(stamps) == 0 || now.Sub(stamps[len(stamps)-1]) >= rl.window {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit middleware limits requests per client IP
func RateLimit(limit int, window time.Duration) fiber.Handler {
	limiter := newRateLimiter(limit, window)

	return func(c *fiber.Ctx) error {
		ip := utils.GetIPAddress(c)

		if !limiter.allow(ip) {
			slog.Warn("Rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", c.Path()),
				slog.String("method", c.Method()),
				slog.Int("limit", limit),
				slog.Duration("window", window))

			return utils.SendError(c, 429, "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}

		return c.Next()
	}
}

// ClaimRateLimit limits claim redemption attempts. A legitimate customer
// redeems once; anything chatty is someone probing claim keys.
func ClaimRateLimit() fiber.Handler {
	return RateLimit(10, time.Minute)
}

// AuthRateLimit middleware limits authentication attempts
func AuthRateLimit() fiber.Handler {
	return RateLimit(5, time.Minute)
}

// UploadRateLimit middleware limits photo upload requests
func UploadRateLimit() fiber.Handler {
	return RateLimit(30, time.Hour)
}
