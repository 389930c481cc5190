package entity

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusCreated: {StatusPending, StatusFailed},
		StatusPending: {StatusPaid, StatusFailed, StatusExpired},
	}
	all := []OrderStatus{StatusCreated, StatusPending, StatusPaid, StatusFailed, StatusExpired}
	for _, from := range all {
		for _, to := range all {
			expected := false
			for _, next := range allowed[from] {
				if next == to {
					expected = true
				}
			}
			assert.Equal(t, expected, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusCreated.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestSourcesOf(t *testing.T) {
	assert.Equal(t, []OrderStatus{StatusCreated}, SourcesOf(StatusPending))
	assert.Equal(t, []OrderStatus{StatusPending}, SourcesOf(StatusPaid))
	assert.Equal(t, []OrderStatus{StatusCreated, StatusPending}, SourcesOf(StatusFailed))
	assert.Empty(t, SourcesOf(StatusCreated))
}

func TestPaymentOrder_Apply(t *testing.T) {
	closed := time.Date(2024, 11, 22, 3, 5, 0, 0, time.UTC)
	order := &PaymentOrder{ReferenceId: "TICKET-42", Status: StatusPending}

	order.Apply(StatusPaid, &PaymentResult{
		ResponseCode:  "00",
		TransactionNo: "14226112",
		BankCode:      "NCB",
		PayDate:       "20241122100512",
		Time:          closed,
	})

	assert.Equal(t, StatusPaid, order.Status)
	assert.Equal(t, closed, order.TimeClosed)
	assert.Equal(t, "14226112", order.TransactionNo)

	order.Apply(StatusFailed, nil)
	assert.Equal(t, StatusFailed, order.Status)
	assert.Equal(t, "14226112", order.TransactionNo)
}

func TestNewCallbackPayload(t *testing.T) {
	values := url.Values{
		"vnp_TxnRef": {"TICKET-42", "TICKET-43"},
		"vnp_Amount": {"15000000"},
	}

	payload := NewCallbackPayload(values)

	assert.Equal(t, CallbackPayload{"vnp_TxnRef": "TICKET-42", "vnp_Amount": "15000000"}, payload)
}
