package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/evoloop/storefront/internal/domain/cart"
	"github.com/evoloop/storefront/internal/domain/order"
	"github.com/evoloop/storefront/internal/domain/product"
	"github.com/evoloop/storefront/internal/domain/shipping"
	"github.com/evoloop/storefront/internal/payment"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognized
// is a 500 with the underlying message attached for operator diagnosis.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr    *cart.StockExceededError
		insuffErr   *product.InsufficientStockError
		qtyErr      *cart.InvalidQuantityError
		categoryErr *product.InvalidCategoryError
		validErr    *shipping.ValidationError
		transErr    *order.InvalidTransitionError
	)

	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"message":   stockErr.Error(),
			"available": stockErr.Available,
		})
	case errors.As(err, &insuffErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"message":   insuffErr.Error(),
			"available": insuffErr.Available,
		})
	case errors.As(err, &qtyErr),
		errors.As(err, &categoryErr),
		errors.As(err, &validErr),
		errors.As(err, &transErr),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidSession):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, shipping.ErrNotFound):
		respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrGateway):
		respondMessage(w, http.StatusBadGateway, "payment initiation failed")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, err.Error())
	}
}
