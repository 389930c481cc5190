package services

import (
	"context"
	"errors"
	"time"

	"ticketpay/entity"
)

var (
	// ErrOrderNotFound is returned when no order has the reference id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending is returned when a transition finds the order in another state.
	ErrOrderNotPending = errors.New("order is not in the expected state")
	// ErrStorageTransient marks a storage failure that may succeed on retry.
	ErrStorageTransient = errors.New("transient storage error")
)

// Database stores checkout attempts. Every Mark* call is a compare-and-set:
// the order must be in the state the transition starts from, otherwise
// ErrOrderNotPending is returned and nothing is changed.
type Database interface {
	WriteLogMessage(ctx context.Context, data Data) error

	CreateOrder(ctx context.Context, order *entity.PaymentOrder) error
	GetOrder(ctx context.Context, referenceId string) (*entity.PaymentOrder, error)
	MarkPending(ctx context.Context, referenceId string) error
	MarkPaid(ctx context.Context, referenceId string, result *entity.PaymentResult) error
	MarkFailed(ctx context.Context, referenceId string, result *entity.PaymentResult) error
	MarkExpired(ctx context.Context, referenceId string, result *entity.PaymentResult) error
	GetExpiredOrders(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentOrder, error)
}

type Data interface {
	DataType() string
}
