package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusShipped.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.False(t, Status("cancelled").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusDelivered, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusPending, false},
		{StatusPending, StatusPending, false},
		{StatusPending, Status("cancelled"), false},
		{Status("unknown"), StatusShipped, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAdvanceStatus(t *testing.T) {
	orders := newOrderRepo()
	_ = orders.Create(context.Background(), &Order{
		ID:              "ord-1",
		UserID:          "u1",
		Total:           decimal.RequireFromString("10.00"),
		StripeSessionID: "cs_1",
		Status:          StatusPending,
	})

	o, err := AdvanceStatus(context.Background(), orders, "ord-1", StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)

	o, err = AdvanceStatus(context.Background(), orders, "ord-1", StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestAdvanceStatus_BackwardsRejected(t *testing.T) {
	orders := newOrderRepo()
	_ = orders.Create(context.Background(), &Order{
		ID:              "ord-1",
		UserID:          "u1",
		StripeSessionID: "cs_1",
		Status:          StatusShipped,
	})

	_, err := AdvanceStatus(context.Background(), orders, "ord-1", StatusPending)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusShipped, itErr.From)
	assert.Equal(t, StatusPending, itErr.To)
}

func TestAdvanceStatus_UnknownOrder(t *testing.T) {
	_, err := AdvanceStatus(context.Background(), newOrderRepo(), "missing", StatusShipped)
	require.ErrorIs(t, err, ErrNotFound)
}
