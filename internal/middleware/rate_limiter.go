package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"heladeria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window rate limiter ─────────────────────────────────────────────────

type rateEntry struct {
	count     int
	windowEnd time.Time
}

// Limiter counts requests per key (client IP) in fixed windows.
type Limiter struct {
	name    string
	limit   int
	window  time.Duration
	mensaje string

	mu      sync.Mutex
	entries map[string]*rateEntry
	now     func() time.Time
}

func NewLimiter(name string, limit int, window time.Duration, mensaje string) *Limiter {
	return &Limiter{
		name:    name,
		limit:   limit,
		window:  window,
		mensaje: mensaje,
		entries: map[string]*rateEntry{},
		now:     time.Now,
	}
}

// LoginLimiter: 20 attempts per minute per IP.
func LoginLimiter() *Limiter {
	return NewLimiter("login", 20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.")
}

// CheckoutLimiter: 10 orders per minute per IP.
func CheckoutLimiter() *Limiter {
	return NewLimiter("checkout", 10, time.Minute, "Demasiados pedidos. Intente nuevamente en un momento.")
}

// Allow registers one hit for key and reports whether it is within the limit
// plus the end of the current window.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.Allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.WithCode(apierror.CodeLimiteExcedido, l.mensaje))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

func (l *Limiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// StartPurge drops expired entries every 5 minutes until ctx is done.
func (l *Limiter) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.purge(); n > 0 {
					log.Debug().Str("limiter", l.name).Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()
}
