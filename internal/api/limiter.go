package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCleanupInterval  = time.Minute
	defaultClientExpiration = 5 * time.Minute
)

type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps a token bucket per client address.
type ClientLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientState
}

// NewClientLimiter allows rps requests per second per client with the given
// burst. A burst below one is raised to one.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientState),
	}
}

// Allow reports whether a request from key may proceed now.
func (cl *ClientLimiter) Allow(key string) bool {
	now := cl.now()

	cl.mu.Lock()
	st, ok := cl.clients[key]
	if !ok {
		st = &clientState{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[key] = st
	}
	st.lastSeen = now
	cl.mu.Unlock()

	return st.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (cl *ClientLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.clients)
}

// StartCleanup drops clients idle for longer than the expiration until ctx
// is done.
func (cl *ClientLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.cleanup(defaultClientExpiration)
		}
	}
}

func (cl *ClientLimiter) cleanup(expiration time.Duration) int {
	now := cl.now()
	removed := 0

	cl.mu.Lock()
	defer cl.mu.Unlock()
	for key, st := range cl.clients {
		if now.Sub(st.lastSeen) > expiration {
			delete(cl.clients, key)
			removed++
		}
	}
	return removed
}

// clientKey identifies the caller by remote IP, ignoring the port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
