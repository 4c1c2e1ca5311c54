package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/evoloop/storefront/internal/auth"
	"github.com/evoloop/storefront/internal/domain/cart"
)

type cartWriteRequest struct {
	Items []cartLinePayload `json:"items"`
}

type cartLinePayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

func toCartResponse(items []cart.EnrichedItem) []cartItemResponse {
	out := make([]cartItemResponse, len(items))
	for i, it := range items {
		out[i] = cartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Image:     it.Image,
			Quantity:  it.Quantity,
			Stock:     it.Stock,
		}
	}
	return out
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.Read(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(items))
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	var req cartWriteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]cart.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = cart.Item{
			ProductID: it.ProductID,
			Price:     decimal.Zero,
			Quantity:  it.Quantity,
		}
	}

	enriched, err := h.carts.Write(r.Context(), auth.UserID(r.Context()), items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(enriched))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), auth.UserID(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "cart cleared")
}
