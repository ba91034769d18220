package router

import (
	"github.com/go-chi/chi/v5"

	"berth/internal/handlers/health"
	"berth/internal/handlers/reservation"
	"berth/internal/handlers/waitlist"
	"berth/internal/handlers/webhook"
)

type DomainHandlers struct {
	Health      health.Handler
	Reservation reservation.Handler
	Waitlist    waitlist.Handler
	Webhook     webhook.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Health.Router(routerGroup)
		r.DomainHandlers.Reservation.Router(routerGroup)
		r.DomainHandlers.Waitlist.Router(routerGroup)
		r.DomainHandlers.Webhook.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
