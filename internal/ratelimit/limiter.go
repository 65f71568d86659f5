package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles each client id with its own token bucket. Buckets idle
// for longer than Expiry are dropped by Sweep.
type Limiter struct {
	Expiry   time.Duration
	Burst    int
	LimitRPS float64

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(burst int, expiry time.Duration, limitRPS float64) *Limiter {
	return &Limiter{
		Expiry:   expiry,
		Burst:    burst,
		LimitRPS: limitRPS,
		clients:  make(map[string]*clientLimiter),
	}
}

// PerMinute converts an attempts-per-minute budget to a rate.
func PerMinute(n int) float64 {
	if n <= 0 {
		return 0
	}
	return Every(time.Minute / time.Duration(n))
}

func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}

func (l *Limiter) Allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, v := range l.clients {
		if now.Sub(v.lastAccess) > l.Expiry {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Run sweeps idle clients every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.Sweep(now)
		}
	}
}
