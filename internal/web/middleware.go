package web

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPObserver records one finished request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// accessLog logs and measures every request once the route is known.
func accessLog(logger *zap.Logger, obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)
			if obs != nil {
				obs.ObserveHTTP(r.Method, route, status, elapsed)
			}
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped on the next sweep.
type ipLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(requestsPerWindow int, window time.Duration) *ipLimiter {
	burst := requestsPerWindow / 2
	if burst < 1 {
		burst = 1
	}
	idle := 2 * window
	if idle < 5*time.Minute {
		idle = 5 * time.Minute
	}
	return &ipLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:     burst,
		idleTTL:   idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	if e, ok := l.limiters[ip]; ok {
		e.lastSeen = now
		return e.limiter
	}
	e := &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst), lastSeen: now}
	l.limiters[ip] = e
	return e.limiter
}

// sweep must be called with mu held.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, e := range l.limiters {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.limiters, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// rateLimit applies a token bucket per client IP.
func rateLimit(requestsPerWindow int, window time.Duration, message string) func(http.Handler) http.Handler {
	limiter := newIPLimiter(requestsPerWindow, window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil || ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.get(ip).Allow() {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
