package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/trading-signals/internal/http/response"
	"github.com/magabrotheeeer/trading-signals/internal/lib/sl"
)

// MsgTooManyRequests ответ при превышении лимита.
const MsgTooManyRequests = "too many requests"

// RateLimitMiddleware общий для всего API лимит запросов в секунду.
func RateLimitMiddleware(log *slog.Logger, limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(MsgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allower общий интерфейс redis_rate.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// KeyByIP ключ лимита по адресу клиента.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return "ratelimit:login:" + strings.TrimSpace(ips[len(ips)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:login:" + xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ratelimit:login:" + ip
}

// LoginLimiter ограничивает попытки входа с одного адреса. Счётчики живут в redis;
// при недоступности redis используется локальный лимитер на процесс.
type LoginLimiter struct {
	log      *slog.Logger
	limiter  Allower
	limit    redis_rate.Limit
	mu       sync.Mutex
	fallback map[string]*rate.Limiter
}

// NewLoginLimiter создаёт лимитер на perMinute попыток в минуту.
func NewLoginLimiter(log *slog.Logger, limiter Allower, perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &LoginLimiter{
		log:      log,
		limiter:  limiter,
		limit:    redis_rate.PerMinute(perMinute),
		fallback: make(map[string]*rate.Limiter),
	}
}

func (l *LoginLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.fallback[key]
	if !ok {
		every := time.Duration(float64(l.limit.Period) / float64(l.limit.Rate))
		lim = rate.NewLimiter(rate.Every(every), l.limit.Burst)
		l.fallback[key] = lim
	}
	return lim.Allow()
}

// Handler middleware для маршрутов входа.
func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := KeyByIP(r)

		res, err := l.limiter.Allow(r.Context(), key, l.limit)
		allowed := err == nil && res.Allowed > 0
		if err != nil {
			l.log.Warn("login limiter unavailable, using local limiter", slog.String("key", key), sl.Err(err))
			allowed = l.allowLocal(key)
		}
		if !allowed {
			retry := time.Second
			if res != nil && res.RetryAfter > 0 {
				retry = res.RetryAfter
			}
			secs := int(retry.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error(MsgTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
