package handler

import (
	"net/http"
	"time"

	"github.com/evoloop/storefront/internal/auth"
	"github.com/evoloop/storefront/internal/domain/shipping"
)

type shippingPayload struct {
	OrderID    string `json:"orderId,omitempty"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (p *shippingPayload) toFields() shipping.Fields {
	return shipping.Fields{
		OrderID:    p.OrderID,
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      p.Phone,
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
	}
}

type shippingResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	OrderID    string    `json:"orderId,omitempty"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toShippingResponse(p *shipping.Profile) shippingResponse {
	return shippingResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		OrderID:    p.OrderID,
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      p.Phone,
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (h *Handler) createShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingPayload
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.shippings.Create(r.Context(), auth.UserID(r.Context()), req.toFields())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toShippingResponse(p))
}

func (h *Handler) updateShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingPayload
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.shippings.Update(r.Context(), auth.UserID(r.Context()), r.PathValue("id"), req.toFields())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShippingResponse(p))
}

func (h *Handler) getMyShipping(w http.ResponseWriter, r *http.Request) {
	p, err := h.shippings.GetByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShippingResponse(p))
}

func (h *Handler) getShippingByOrder(w http.ResponseWriter, r *http.Request) {
	p, err := h.shippings.GetByOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShippingResponse(p))
}

func (h *Handler) listAllShipping(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.shippings.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]shippingResponse, len(profiles))
	for i := range profiles {
		out[i] = toShippingResponse(&profiles[i])
	}
	respondJSON(w, http.StatusOK, out)
}
