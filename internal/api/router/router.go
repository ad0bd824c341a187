// Package router assembles the HTTP surface of the booking platform.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/internal/catalog"
	httpmiddleware "github.com/serenity-spa/booking-platform/internal/http/middleware"
	"github.com/serenity-spa/booking-platform/internal/payments"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	BookingsHandler *bookings.Handler
	CatalogHandler  *catalog.Handler
	PaymentWebhook  *payments.WebhookHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string

	// Booking submission rate limit, requests/sec per IP. Zero
	// disables limiting.
	BookingRatePerSec float64
	BookingRateBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

		if cfg.BookingsHandler != nil {
			create := http.HandlerFunc(cfg.BookingsHandler.Create)
			if cfg.BookingRatePerSec > 0 {
				limited := httpmiddleware.RateLimit(cfg.BookingRatePerSec, cfg.BookingRateBurst)(create)
				public.Method(http.MethodPost, "/bookings", limited)
			} else {
				public.Post("/bookings", create)
			}
			public.Get("/bookings/{bookingID}", cfg.BookingsHandler.Get)
			public.Post("/bookings/{bookingID}/cancel", cfg.BookingsHandler.Cancel)
			public.Get("/availability", cfg.BookingsHandler.Availability)
		}

		if cfg.CatalogHandler != nil {
			public.Route("/catalog", func(r chi.Router) {
				r.Get("/services", cfg.CatalogHandler.ListServices)
				r.Get("/staff", cfg.CatalogHandler.ListStaff)
				r.Get("/rooms", cfg.CatalogHandler.ListRooms)
			})
		}

		if cfg.PaymentWebhook != nil {
			public.Post("/webhooks/payments", cfg.PaymentWebhook.Handle)
		}
	})

	// Admin routes (protected by HMAC-signed JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.BookingsHandler != nil {
				admin.Post("/bookings/{bookingID}/confirm", cfg.BookingsHandler.Confirm)
				admin.Post("/bookings/{bookingID}/complete", cfg.BookingsHandler.Complete)
				admin.Post("/bookings/{bookingID}/no-show", cfg.BookingsHandler.NoShow)
				admin.Get("/stats/bookings", cfg.BookingsHandler.AdminStats)
			}
			if cfg.CatalogHandler != nil {
				admin.Post("/catalog/invalidate", cfg.CatalogHandler.Invalidate)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
