package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter ограничивает частоту запросов к боту по chat ID (token bucket на чат).
// К лимитам самого GNews отношения не имеет.
type Limiter struct {
	mu      sync.Mutex
	buckets map[int64]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	now      func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type Config struct {
	RequestsPerMinute int
	// Burst по умолчанию равен RequestsPerMinute
	Burst int
}

func New(cfg Config) *Limiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perMinute
	}

	l := &Limiter{
		buckets: make(map[int64]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go l.cleanup(5 * time.Minute)
	return l
}

func (l *Limiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	return l.get(chatID, now).lim.AllowN(now, 1)
}

// RetryAfter - через сколько освободится следующий запрос
func (l *Limiter) RetryAfter(chatID int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[chatID]
	if !ok {
		return 0
	}
	tokens := b.lim.TokensAt(l.now())
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *Limiter) get(chatID int64, now time.Time) *bucket {
	b, ok := l.buckets[chatID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[chatID] = b
	}
	b.lastSeen = now
	return b
}

func (l *Limiter) cleanup(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.removeIdle()
		}
	}
}

func (l *Limiter) removeIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}
