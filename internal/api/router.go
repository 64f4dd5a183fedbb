// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"securebank/internal/api/handler"
)

// RouterConfig carries the optional pieces of the router.
type RouterConfig struct {
	AllowedOrigins []string     // CORS origins; empty allows any http(s) origin
	Metrics        http.Handler // served at /metrics when non-nil
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(bankHandler *handler.BankHandler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	// Session routes
	r.Post("/register", bankHandler.Register)
	r.Post("/login", bankHandler.Login)
	r.Post("/logout", bankHandler.Logout)
	r.Get("/session", bankHandler.Session)
	r.Get("/notification", bankHandler.Notification)

	// Money movement routes, all acting on the session user
	r.Post("/deposit", bankHandler.Deposit)
	r.Post("/withdraw", bankHandler.Withdraw)
	r.Post("/transfers", bankHandler.Transfer)
	r.Get("/transactions", bankHandler.GetTransactionHistory)

	logger.Debug("Routes registered")
	return r
}
