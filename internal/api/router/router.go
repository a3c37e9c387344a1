// Package router wires every HTTP surface of the pickup platform onto one
// chi router.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/curbcycle/pickup-platform/internal/address"
	"github.com/curbcycle/pickup-platform/internal/calendar"
	"github.com/curbcycle/pickup-platform/internal/checkout"
	httpmiddleware "github.com/curbcycle/pickup-platform/internal/http/middleware"
	"github.com/curbcycle/pickup-platform/internal/reminders"
	"github.com/curbcycle/pickup-platform/internal/signup"
	"github.com/curbcycle/pickup-platform/internal/subscriptions"
	"github.com/curbcycle/pickup-platform/internal/verification"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	SignupHandler       *signup.Handler
	CalendarHandler     *calendar.Handler
	AddressHandler      *address.Handler
	VerificationHandler *verification.Handler
	CheckoutHandler     *checkout.Handler
	RemindersHandler    *reminders.Handler
	SubscriptionsAdmin  *subscriptions.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.CalendarHandler != nil {
			public.Get("/calendar/grid", cfg.CalendarHandler.GetGrid)
		}
		if cfg.AddressHandler != nil {
			public.Mount("/address", cfg.AddressHandler.Routes())
		}
		if cfg.SignupHandler != nil {
			public.Mount("/signup", cfg.SignupHandler.Routes())
		}
		if cfg.VerificationHandler != nil {
			public.Mount("/verification", cfg.VerificationHandler.Routes())
		}
		if cfg.CheckoutHandler != nil {
			public.Mount("/checkout", cfg.CheckoutHandler.Routes())
		}
	})

	// Admin routes, protected by HMAC JWT.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.RemindersHandler != nil {
				admin.Mount("/reminders", cfg.RemindersHandler.Routes())
			}
			if cfg.SubscriptionsAdmin != nil {
				admin.Mount("/subscriptions", cfg.SubscriptionsAdmin.Routes())
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
