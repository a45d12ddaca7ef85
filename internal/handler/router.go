package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mahabharata-landing/internal/middleware"
	"mahabharata-landing/pkg/logger"
)

// Routes bundles the handlers mounted by NewRouter
type Routes struct {
	Health        *HealthHandler
	Contributions *ContributionHandler
	Waitlist      *WaitlistHandler
	Orders        *OrdersHandler
	Groups        *GroupsHandler
	Auth          *middleware.AuthMiddleware
}

// NewRouter builds the HTTP routing tree
func NewRouter(routes Routes, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/health", routes.Health.CheckHealth)

	// Form route kept for the original landing page script
	r.Post("/api/create-order", routes.Contributions.LegacyCreateOrder)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/contributions", routes.Contributions.Create)
		r.Get("/contributions/{orderID}", routes.Contributions.Get)
		r.Get("/contributions/{orderID}/status", routes.Contributions.Status)
		r.Post("/waitlist", routes.Waitlist.Join)

		r.Group(func(r chi.Router) {
			r.Use(routes.Auth.Authenticate)
			r.Get("/orders", routes.Orders.List)
			r.Get("/notify/groups", routes.Groups.ListGroups)
		})
	})

	return r
}
