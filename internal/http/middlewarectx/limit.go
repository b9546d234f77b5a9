package middlewarectx

import (
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
)

// RateLimiter ограничивает частоту запросов по идентификатору кредитора,
// для неавторизованных запросов — по адресу клиента.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter создаёт лимитер с заданными rps и burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = lim
	}
	return lim
}

// Middleware возвращает HTTP middleware, отклоняющий запросы сверх лимита
// с кодом 429 Too Many Requests.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := LenderUIDFromContext(r.Context())
		if !ok {
			key = r.RemoteAddr
		}
		if !rl.limiter(key).Allow() {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
