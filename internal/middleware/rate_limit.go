// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
	closed   sync.Once
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		done:     make(chan struct{}),
	}

	// Clean up old visitors every minute
	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mtx.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.closed.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getVisitor(c.ClientIP())

		if !limiter.Allow() {
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimits holds the limiters built from configuration. Disabled limits pass every request.
type RateLimits struct {
	limiters []*RateLimiter
	general  gin.HandlerFunc
	auth     gin.HandlerFunc
	upload   gin.HandlerFunc
}

func NewRateLimits(cfg config.RateLimitConfig) *RateLimits {
	rl := &RateLimits{}
	if !cfg.Enabled {
		pass := func(c *gin.Context) { c.Next() }
		rl.general, rl.auth, rl.upload = pass, pass, pass
		return rl
	}

	general := NewRateLimiter(rate.Limit(cfg.GeneralPerSec), cfg.GeneralBurst)
	auth := NewRateLimiter(rate.Limit(cfg.AuthPerMinute/60), cfg.AuthBurst)
	upload := NewRateLimiter(rate.Limit(cfg.UploadPerMinute/60), cfg.UploadBurst)
	rl.limiters = []*RateLimiter{general, auth, upload}
	rl.general = general.Middleware()
	rl.auth = auth.Middleware()
	rl.upload = upload.Middleware()
	return rl
}

func (rl *RateLimits) General() gin.HandlerFunc { return rl.general }
func (rl *RateLimits) Auth() gin.HandlerFunc    { return rl.auth }
func (rl *RateLimits) Upload() gin.HandlerFunc  { return rl.upload }

func (rl *RateLimits) Close() {
	for _, l := range rl.limiters {
		l.Close()
	}
}
