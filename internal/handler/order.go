package handler

import (
	"net/http"
	"time"

	"github.com/evoloop/storefront/internal/auth"
	"github.com/evoloop/storefront/internal/domain/order"
)

type finalizeRequest struct {
	StripeSessionID string           `json:"stripeSessionId"`
	Shipping        *shippingPayload `json:"shipping,omitempty"`
}

type finalizeResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Order   *orderResponse `json:"order,omitempty"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	Items           []orderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	StripeSessionID string              `json:"stripeSessionId"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) *orderResponse {
	if o == nil {
		return nil
	}
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
		}
	}
	return &orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		Total:           o.Total.InexactFloat64(),
		StripeSessionID: o.StripeSessionID,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderListResponse(orders []order.Order) []*orderResponse {
	out := make([]*orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}

// finalizeOrder is the post-payment commit: the client returns from the
// gateway with a session id and this promotes the pending order.
func (h *Handler) finalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := order.FinalizeParams{
		UserID:    auth.UserID(r.Context()),
		SessionID: req.StripeSessionID,
	}
	if req.Shipping != nil {
		fields := req.Shipping.toFields()
		params.Shipping = &fields
	}

	result, err := h.finalizer.Finalize(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Status == order.FinalizeCommitted {
		status = http.StatusCreated
	}
	respondJSON(w, status, finalizeResponse{
		Status:  string(result.Status),
		Message: result.Message,
		Order:   toOrderResponse(result.Order),
	})
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) getOrderBySession(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetBySession(r.Context(), auth.UserID(r.Context()), r.PathValue("sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) listOrdersByUser(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := order.AdvanceStatus(r.Context(), h.orders, r.PathValue("id"), order.Status(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
