package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 3,
	})
	defer limiter.Stop()

	chatID := int64(12345)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(chatID) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(chatID) {
		t.Error("Fourth request should be blocked due to rate limit")
	}
}

func TestLimiter_DifferentChats(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 1,
	})
	defer limiter.Stop()

	chat1 := int64(111)
	chat2 := int64(222)

	if !limiter.Allow(chat1) {
		t.Error("Chat1 first request should be allowed")
	}
	if !limiter.Allow(chat2) {
		t.Error("Chat2 first request should be allowed")
	}
	if limiter.Allow(chat1) {
		t.Error("Chat1 second request should be blocked")
	}
	if limiter.Allow(chat2) {
		t.Error("Chat2 second request should be blocked")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	chatID := int64(1)
	if !limiter.Allow(chatID) {
		t.Fatal("first request should be allowed")
	}
	if limiter.Allow(chatID) {
		t.Fatal("second request should be blocked")
	}

	now = now.Add(61 * time.Second)
	if !limiter.Allow(chatID) {
		t.Error("request after a minute should be allowed")
	}
}

func TestLimiter_RetryAfter(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	chatID := int64(12345)
	if got := limiter.RetryAfter(chatID); got != 0 {
		t.Errorf("RetryAfter() for new chat = %v, want 0", got)
	}

	limiter.Allow(chatID)

	got := limiter.RetryAfter(chatID)
	if got < 59*time.Second || got > 61*time.Second {
		t.Errorf("RetryAfter() = %v, expected around 1m", got)
	}
}

func TestLimiter_DefaultConfig(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 0,
	})
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	chatID := int64(12345)

	for i := 0; i < 10; i++ {
		if !limiter.Allow(chatID) {
			t.Errorf("Request %d should be allowed with default config", i+1)
		}
	}

	// 11-й уже нет
	if limiter.Allow(chatID) {
		t.Error("11th request should be blocked")
	}
}

func TestLimiter_RemoveIdle(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.Allow(1)
	now = now.Add(time.Hour)
	limiter.Allow(2)

	limiter.removeIdle()

	limiter.mu.Lock()
	_, has1 := limiter.buckets[1]
	_, has2 := limiter.buckets[2]
	limiter.mu.Unlock()

	if has1 {
		t.Error("idle bucket should be removed")
	}
	if !has2 {
		t.Error("active bucket should be kept")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 100,
	})
	defer limiter.Stop()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	chatID := int64(12345)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if limiter.Allow(chatID) {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 100 {
		t.Errorf("allowed = %d, want 100 after concurrent access", got)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := New(Config{})
	limiter.Stop()
	limiter.Stop()
}
