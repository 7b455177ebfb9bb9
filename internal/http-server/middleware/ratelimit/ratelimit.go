package ratelimit

import (
	"fmt"
	"guestlist/internal/http-server/middleware/authenticate"
	"guestlist/lib/api/response"
	"guestlist/lib/sl"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per client address in fixed Redis windows.
type Limiter struct {
	redis  redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	log    *slog.Logger
}

func New(client redis.Cmdable, prefix string, limit int64, window time.Duration, log *slog.Logger) *Limiter {
	return &Limiter{
		redis:  client,
		prefix: prefix,
		limit:  limit,
		window: window,
		log:    log.With(sl.Module("middleware.ratelimit")),
	}
}

// key uses the connection address only; client supplied forwarding headers
// are honored upstream by RealIP when a trusted proxy is configured.
func (l *Limiter) key(r *http.Request) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.prefix, authenticate.RemoteAddr(r))
}

// Allow increments the counter for the request's client and reports whether it is
// still within the limit. Redis failures let the request through.
func (l *Limiter) Allow(r *http.Request) bool {
	ctx := r.Context()
	key := l.key(r)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.log.With(slog.String("key", key)).Warn("rate limit counter", sl.Err(err))
		return true
	}
	if count == 1 {
		if err = l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.With(slog.String("key", key)).Warn("rate limit expire", sl.Err(err))
		}
	}
	return count <= l.limit
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r) {
			l.log.With(slog.String("remote_addr", authenticate.RemoteAddr(r))).Warn("too many requests")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("Too many requests, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
