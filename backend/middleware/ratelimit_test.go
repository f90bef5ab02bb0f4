package middleware

import (
	"testing"
	"time"
)

func testLimiter(limit int, window time.Duration, start time.Time) (*rateLimiter, *time.Time) {
	clock := start
	rl := &rateLimiter{
		clients: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     func() time.Time { return clock },
	}
	return rl, &clock
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl, _ := testLimiter(3, time.Minute, time.Now())

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit should be blocked")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("a different key must not share the budget")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	start := time.Now()
	rl, clock := testLimiter(2, time.Minute, start)

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.1")
	if rl.allow("10.0.0.1") {
		t.Fatal("third request inside the window should be blocked")
	}

	*clock = start.Add(time.Minute)
	if !rl.allow("10.0.0.1") {
		t.Error("request after the window elapsed should be allowed")
	}
}

func TestRateLimiter_PrunesInPlace(t *testing.T) {
	start := time.Now()
	rl, clock := testLimiter(2, time.Minute, start)

	for i := 0; i < 10; i++ {
		rl.allow("10.0.0.1")
		*clock = clock.Add(time.Minute)
	}
	if got := len(rl.clients["10.0.0.1"]); got > 3 {
		t.Errorf("stamps retained = %d, want at most limit+1", got)
	}
}
