// Package handler exposes the REST surface: catalog, cart, checkout,
// order finalization and management, and shipping profiles.
package handler

import (
	"net/http"

	"github.com/evoloop/storefront/internal/auth"
	"github.com/evoloop/storefront/internal/domain/cart"
	"github.com/evoloop/storefront/internal/domain/order"
	"github.com/evoloop/storefront/internal/domain/product"
	"github.com/evoloop/storefront/internal/domain/shipping"
)

// Handler bundles the domain services behind the REST routes.
type Handler struct {
	products  product.Repository
	carts     *cart.Service
	checkout  *order.CheckoutService
	finalizer *order.Finalizer
	orders    order.Repository
	shippings *shipping.Service
	verifier  *auth.Verifier
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	carts *cart.Service,
	checkout *order.CheckoutService,
	finalizer *order.Finalizer,
	orders order.Repository,
	shippings *shipping.Service,
	verifier *auth.Verifier,
) *Handler {
	return &Handler{
		products:  products,
		carts:     carts,
		checkout:  checkout,
		finalizer: finalizer,
		orders:    orders,
		shippings: shippings,
		verifier:  verifier,
	}
}

// Routes registers every API route on mux. Catalog reads are public; the
// rest requires a bearer token, with admin routes additionally gated on the
// admin role.
func (h *Handler) Routes(mux *http.ServeMux) {
	authed := auth.Middleware(h.verifier)
	user := func(fn http.HandlerFunc) http.Handler {
		return authed(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return authed(auth.RequireAdmin(fn))
	}

	// Catalog.
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.Handle("POST /api/products", admin(h.createProduct))
	mux.Handle("PUT /api/products/{id}", admin(h.updateProduct))

	// Cart.
	mux.Handle("GET /api/cart", user(h.getCart))
	mux.Handle("POST /api/cart", user(h.updateCart))
	mux.Handle("DELETE /api/cart/clear", user(h.clearCart))

	// Checkout and orders.
	mux.Handle("POST /api/payments/create-checkout-session", user(h.createCheckoutSession))
	mux.Handle("POST /api/orders", user(h.finalizeOrder))
	mux.Handle("GET /api/orders", user(h.listMyOrders))
	mux.Handle("GET /api/orders/session/{sessionID}", user(h.getOrderBySession))
	mux.Handle("GET /api/orders/all", admin(h.listAllOrders))
	mux.Handle("GET /api/orders/user/{id}", admin(h.listOrdersByUser))
	mux.Handle("PUT /api/orders/{id}/status", admin(h.updateOrderStatus))

	// Shipping.
	mux.Handle("POST /api/shipping", user(h.createShipping))
	mux.Handle("PUT /api/shipping/{id}", user(h.updateShipping))
	mux.Handle("GET /api/shipping/user/me", user(h.getMyShipping))
	mux.Handle("GET /api/shipping/order/{orderID}", user(h.getShippingByOrder))
	mux.Handle("GET /api/shipping/all", admin(h.listAllShipping))
}
