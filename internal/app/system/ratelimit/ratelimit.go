// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket. Idle keys expire from the table so
// memory stays bounded under scans from many addresses. It is safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	idle    time.Duration
	trusted []netip.Prefix
}

// New creates a limiter allowing perSecond sustained requests per key with
// bursts up to burst. Keys unused for idle are forgotten. Requests are keyed
// by peer address until TrustProxies is called.
func New(perSecond float64, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Limiter{
		buckets: cache.New(idle, idle*2),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
	}
}

// ParseProxies parses proxy entries given as CIDRs or single addresses.
func ParseProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// TrustProxies sets the proxies whose forwarding headers are honoured.
func (l *Limiter) TrustProxies(entries []string) error {
	p, err := ParseProxies(entries)
	if err != nil {
		return err
	}
	l.trusted = p
	return nil
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(key); ok {
		// Touch so active keys don't expire mid-burst.
		l.buckets.Set(key, v, cache.DefaultExpiration)
		return v.(*rate.Limiter)
	}
	b := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Set(key, b, cache.DefaultExpiration)
	return b
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Middleware rejects over-limit requests per client IP with a JSON 429.
// endpoint labels the rejection counter.
func (l *Limiter) Middleware(endpoint string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := l.ClientIP(r)
			if l.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
			logger.Debug("rate limited", zap.String("endpoint", endpoint), zap.String("ip", ip))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
		})
	}
}

// ClientIP returns the address a request is charged to. Forwarding headers
// only count when the peer is a trusted proxy. X-Forwarded-For is walked
// from the right, skipping trusted hops, since entries to the left of the
// first untrusted hop are whatever the client chose to send.
func (l *Limiter) ClientIP(r *http.Request) string {
	peer := peerIP(r.RemoteAddr)
	if !l.isTrusted(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			a, err := netip.ParseAddr(hop)
			if err != nil {
				return peer
			}
			if !l.isTrusted(hop) {
				return a.Unmap().String()
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if a, err := netip.ParseAddr(xri); err == nil {
			return a.Unmap().String()
		}
	}
	return peer
}

func (l *Limiter) isTrusted(ip string) bool {
	if len(l.trusted) == 0 {
		return false
	}
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range l.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// peerIP strips the port from RemoteAddr.
func peerIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
