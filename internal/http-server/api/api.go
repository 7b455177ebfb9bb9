package api

import (
	"context"
	"errors"
	"fmt"
	"guestlist/internal/config"
	apierrors "guestlist/internal/http-server/handlers/errors"
	"guestlist/internal/http-server/handlers/guest"
	"guestlist/internal/http-server/handlers/health"
	"guestlist/internal/http-server/handlers/moderation"
	"guestlist/internal/http-server/handlers/scan"
	"guestlist/internal/http-server/handlers/static"
	"guestlist/internal/http-server/middleware/authenticate"
	"guestlist/internal/http-server/middleware/requestlog"
	"guestlist/internal/http-server/middleware/timeout"
	"guestlist/lib/sl"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	guest.Core
	moderation.Core
	scan.Core
}

// Options carries the optional parts of the router.
type Options struct {
	// RegisterLimit wraps the public registration route, e.g. a Redis rate limiter.
	RegisterLimit func(http.Handler) http.Handler
	StaticDir     string
	// TrustProxy applies forwarding headers to the client address.
	TrustProxy bool
	// CorsOrigins enables CORS on the API for the listed origins.
	CorsOrigins []string
}

func NewRouter(log *slog.Logger, handler Handler, opts Options) http.Handler {
	router := chi.NewRouter()
	if opts.TrustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(timeout.Timeout(5 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(apierrors.NotFound(log))
	router.MethodNotAllowed(apierrors.NotAllowed(log))

	router.Group(func(public chi.Router) {
		public.Use(render.SetContentType(render.ContentTypeJSON))
		public.Use(requestlog.New(log))
		public.Get("/health", health.Health())
		public.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	router.Route("/api", func(rootApi chi.Router) {
		if len(opts.CorsOrigins) > 0 {
			rootApi.Use(cors.Handler(cors.Options{
				AllowedOrigins: opts.CorsOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", authenticate.HeaderAdminPassword},
				MaxAge:         300,
			}))
		}
		rootApi.Use(render.SetContentType(render.ContentTypeJSON))
		rootApi.NotFound(apierrors.NotFound(log))
		rootApi.MethodNotAllowed(apierrors.NotAllowed(log))

		rootApi.Group(func(open chi.Router) {
			open.Use(requestlog.New(log))
			if opts.RegisterLimit != nil {
				open.Use(opts.RegisterLimit)
			}
			open.Post("/register", guest.Register(log, handler))
		})

		rootApi.Group(func(admin chi.Router) {
			admin.Use(authenticate.New(log, handler))
			admin.Get("/guests", guest.List(log, handler))
			admin.Post("/approve", moderation.Approve(log, handler))
			admin.Post("/reject", moderation.Reject(log, handler))
			admin.Post("/scan", scan.Validate(log, handler))
			admin.Post("/reset", moderation.Reset(log, handler))
		})
	})

	if opts.StaticDir != "" {
		router.Get("/*", static.SPA(opts.StaticDir))
	}

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, opts Options) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(log, handler, opts),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
