package authenticate

import (
	"guestlist/lib/api/response"
	"guestlist/lib/sl"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const HeaderAdminPassword = "X-Admin-Password"

type Authenticate interface {
	AuthenticateBySecret(secret string) error
}

func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", RemoteAddr(r)),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			secret := Secret(r)
			if secret == "" {
				logger = logger.With(slog.String("auth", "secret not found"))
				authFailed(ww, r, "Unauthorized: admin password required")
				return
			}
			logger = logger.With(sl.Secret("secret", secret))

			if auth == nil {
				authFailed(ww, r, "Unauthorized: authentication not enabled")
				return
			}

			if err := auth.AuthenticateBySecret(secret); err != nil {
				logger = logger.With(sl.Err(err))
				authFailed(ww, r, "Unauthorized")
				return
			}

			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}

// Secret reads the shared admin secret from X-Admin-Password or a Bearer token.
func Secret(r *http.Request) string {
	if secret := r.Header.Get(HeaderAdminPassword); secret != "" {
		return secret
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RemoteAddr returns the client host. Forwarding headers are applied by
// chi's RealIP middleware when the server runs behind a trusted proxy.
func RemoteAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
