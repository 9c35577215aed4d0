package middleware

import (
	"net/http"
	"sync"
	"time"

	"kvrdesk/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerMin = 200
	limiterIdleTTL        = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	visitors map[string]*visitor
	perMin   int
	mu       sync.Mutex
}

func newRateLimiterStore(perMin int) *rateLimiterStore {
	if perMin <= 0 {
		perMin = defaultRequestsPerMin
	}
	return &rateLimiterStore{visitors: make(map[string]*visitor), perMin: perMin}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// evict drops limiters that have been idle for longer than ttl.
func (s *rateLimiterStore) evict(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(s.visitors, ip)
			n++
		}
	}
	return n
}

// RateLimitMiddleware limits requests per IP address to MAX_REQUESTS_PER_MIN.
func RateLimitMiddleware() gin.HandlerFunc {
	store := newRateLimiterStore(config.AppConfig.MaxRequestsPerMin)
	go func() {
		ticker := time.NewTicker(limiterIdleTTL)
		defer ticker.Stop()
		for now := range ticker.C {
			store.evict(now, limiterIdleTTL)
		}
	}()
	return rateLimit(store)
}

func rateLimit(store *rateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip, time.Now()).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
