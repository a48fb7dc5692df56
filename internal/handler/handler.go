// Package handler exposes the order and partner services over HTTP with a
// chi router. Handlers stay thin: request parsing, delegation, and mapping
// of domain errors to status codes.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/order"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

// OrderService is the order lifecycle surface the handlers consume.
type OrderService interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	List(ctx context.Context, f order.Filter, page listing.Page, sort listing.Sort) ([]order.Order, error)
	Approve(ctx context.Context, orderID string) (*order.Order, error)
	Cancel(ctx context.Context, orderID string) (*order.Order, error)
}

// PartnerService is the partner management surface the handlers consume.
type PartnerService interface {
	Create(ctx context.Context, params partner.CreateParams) (*partner.Partner, error)
	Get(ctx context.Context, id string) (*partner.Partner, error)
	List(ctx context.Context, f partner.Filter, page listing.Page, sort listing.Sort) ([]partner.Partner, error)
}

// Handler bundles the HTTP handlers for the API surface.
type Handler struct {
	orders   OrderService
	partners PartnerService
}

// New constructs a Handler with the required services.
func New(orders OrderService, partners PartnerService) *Handler {
	return &Handler{
		orders:   orders,
		partners: partners,
	}
}

// Routes returns the API router mounted under /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/approve", h.approveOrder)
			r.Post("/{orderID}/cancel", h.cancelOrder)
		})
		r.Route("/partners", func(r chi.Router) {
			r.Post("/", h.createPartner)
			r.Get("/", h.listPartners)
			r.Get("/{partnerID}", h.getPartner)
		})
	})

	return r
}
