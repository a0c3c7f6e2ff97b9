// Package router sets up all HTTP routes and middleware chains for the
// Postflow server. It organizes routes into the authenticated admin API
// and the code-addressed public portal, each with its own middleware stack.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"postflow/internal/handlers"
	"postflow/internal/middleware"
	"postflow/internal/session"
)

// portalRateLimit bounds unauthenticated portal traffic per IP. Access
// codes are only four digits behind a fixed prefix, so lookups must not
// be cheap to enumerate.
const (
	portalRateLimit  = 60
	portalRateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, portal *handlers.Portal) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Admin API — CSRF-protected JSON surface.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth endpoints — accessible without a session.
		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", auth.Me)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// Clients and their nested collections
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", admin.ClientsList)
				r.Post("/", admin.ClientCreate)
				r.Get("/{id}", admin.ClientGet)
				r.Patch("/{id}", admin.ClientRename)
				r.Delete("/{id}", admin.ClientDelete)
				r.Get("/{id}/calendars", admin.CalendarsList)
				r.Post("/{id}/calendars", admin.CalendarCreate)
				r.Get("/{id}/posts", admin.PostsListByClient)
			})

			// Calendars
			r.Route("/calendars", func(r chi.Router) {
				r.Patch("/{id}", admin.CalendarUpdate)
				r.Delete("/{id}", admin.CalendarDelete)
				r.Get("/{id}/posts", admin.PostsListByCalendar)
			})

			// Posts
			r.Route("/posts", func(r chi.Router) {
				r.Post("/", admin.PostCreate)
				r.Get("/{id}", admin.PostGet)
				r.Patch("/{id}", admin.PostUpdate)
				r.Delete("/{id}", admin.PostDelete)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/today", admin.NotificationsToday)
				r.Post("/{id}/seen", admin.NotificationMarkSeen)
			})
		})
	})

	// Public portal — rate-limited, no auth beyond the access code.
	portalLimiter := middleware.NewRateLimiter(portalRateLimit, portalRateWindow)
	r.Route("/api/portal", func(r chi.Router) {
		r.Use(portalLimiter.Middleware)
		r.Get("/{code}", portal.View)
		r.Get("/{code}/posts", portal.Posts)
		r.Get("/{code}/qr", portal.QR)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
