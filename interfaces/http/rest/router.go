package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"knowspark/application/commands/bus"
	"knowspark/application/ports"
	querybus "knowspark/application/queries/bus"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/di"
	"knowspark/interfaces/http/rest/handlers"
	"knowspark/interfaces/http/rest/middleware"
	"knowspark/pkg/auth"
	pkgerrors "knowspark/pkg/errors"
	"knowspark/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	verifier    auth.TokenVerifier
	ipLimiter   *auth.IPRateLimiter
	userLimiter *auth.UserRateLimiter
	completion  ports.CompletionService
	collector   *observability.Collector
	tracer      *observability.Tracer
	cfg         *config.Config
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewRouter creates a router from a wired container
func NewRouter(c *di.Container) *Router {
	return &Router{
		commandBus:  c.CommandBus,
		queryBus:    c.QueryBus,
		verifier:    c.TokenVerifier,
		ipLimiter:   c.IPLimiter,
		userLimiter: c.UserLimiter,
		completion:  c.Completion,
		collector:   c.Collector,
		tracer:      c.Tracer,
		cfg:         c.Config,
		errors:      pkgerrors.NewErrorHandler(c.Logger, c.Config.IsDevelopment()),
		logger:      c.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}
	router.Use(middleware.Tracing(rt.tracer))
	router.Use(versionMiddleware)

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Location"},
			AllowCredentials: !allowsAnyOrigin(rt.cfg.CORSOrigins),
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	// v1 paths are kept alive for older clients
	router.Route("/api/v1", func(r chi.Router) {
		r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, strings.Replace(req.URL.Path, "/api/v1", "/api/v2", 1), http.StatusPermanentRedirect)
		})
	})

	ask := handlers.NewAskHandler(rt.queryBus, rt.errors, rt.logger)
	projects := handlers.NewProjectHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	questions := handlers.NewQuestionHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)

	router.Route("/api/v2", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.LimitByIP(rt.ipLimiter, rt.errors, rt.logger))
			r.Get("/share/{projectID}", ask.SharedProject)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.verifier, rt.ipLimiter, rt.userLimiter, rt.errors, rt.logger))

			r.Post("/ask", ask.Ask)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projects.ListProjects)
				r.Post("/", projects.CreateProject)
				r.Post("/sync", projects.SyncProjects)

				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", projects.GetProject)
					r.Put("/", projects.RenameProject)
					r.Delete("/", projects.DeleteProject)
					r.Get("/topics", projects.ListTopics)

					r.Route("/questions", func(r chi.Router) {
						r.Post("/", questions.AskQuestion)
						r.Put("/order", questions.ReorderQuestions)
						r.Route("/{questionID}", func(r chi.Router) {
							r.Put("/", questions.UpdateQuestion)
							r.Delete("/", questions.DeleteQuestion)
							r.Put("/topic", questions.UpdateTopic)
							r.Post("/regenerate", questions.RegenerateAnswer)
							r.Get("/render", questions.RenderAnswer)
						})
					})
				})
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports the completion provider the service answers with
func (rt *Router) readinessCheck(w http.ResponseWriter, _ *http.Request) {
	if rt.completion == nil {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{
		"status":     "ready",
		"completion": rt.completion.Name(),
	})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v2")
		if strings.HasPrefix(r.URL.Path, "/api/v1") {
			w.Header().Set("X-API-Deprecated", "true")
		}
		next.ServeHTTP(w, r)
	})
}
