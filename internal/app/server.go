package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/coursechat/internal/api/middlewares"
	"github.com/markdave123-py/coursechat/internal/config"
	"github.com/markdave123-py/coursechat/internal/observability/metrics"
)

// Deps are the services the HTTP layer routes to.
type Deps struct {
	Users     handlers.UserService
	Courses   handlers.CourseService
	Materials handlers.MaterialService
	Chat      handlers.ChatService
	Metrics   *metrics.Metrics
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, deps, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("http"),
	}
}

func NewRouter(cfg *config.Config, deps Deps, logger *zap.Logger) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Users, cfg.JWTSecret, cfg.TokenTTL, logger)
	courseHandler := handlers.NewCourseHandler(deps.Courses)
	materialHandler := handlers.NewMaterialHandler(deps.Materials, logger)
	chatHandler := handlers.NewChatHandler(deps.Chat, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/user", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Get("/course", courseHandler.List)
			protected.Post("/course", courseHandler.Create)
			protected.Get("/course/search", courseHandler.Search)
			protected.Get("/course/{id}", courseHandler.Get)
			protected.Put("/course/{id}", courseHandler.Update)
			protected.Delete("/course/{id}", courseHandler.Delete)

			protected.Get("/material", materialHandler.List)
			protected.Post("/material", materialHandler.Create)
			protected.Get("/material/course/{course_id}", materialHandler.ListByCourse)
			protected.Get("/material/{id}", materialHandler.Get)
			protected.Put("/material/{id}", materialHandler.Update)
			protected.Delete("/material/{id}", materialHandler.Delete)
			protected.Post("/material/{id}/upload", materialHandler.Upload)

			protected.Post("/chatbot/chat", chatHandler.Chat)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
