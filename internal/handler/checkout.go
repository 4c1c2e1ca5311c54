package handler

import (
	"net/http"

	"github.com/evoloop/storefront/internal/auth"
)

// createCheckoutSession opens a hosted payment session for the caller's
// current cart and returns the redirect URL. The pending order is persisted
// server-side; the request body is intentionally ignored so clients cannot
// submit their own line items or totals.
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.CreateSession(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"url":       session.URL,
		"sessionId": session.SessionID,
	})
}
