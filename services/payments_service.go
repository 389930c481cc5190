package services

import (
	"context"
	"time"

	"ticketpay/entity"
)

type Payments interface {
	Checkout(ctx context.Context, request *entity.CheckoutRequest) (*entity.CheckoutResponse, error)
	Notify(ctx context.Context, payload entity.CallbackPayload) *entity.IpnResponse
	Return(ctx context.Context, payload entity.CallbackPayload) *entity.ReturnResult
}

// LogHandler is implemented by the service logger.
type LogHandler interface {
	Debug(text string)
	Info(text string)
	Warn(text string)
	Error(text string, err error)
}

// Locker provides mutual exclusion per key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher delivers payment outcome events to other services.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event *entity.PaymentEvent) error
}

// Clock is the time source of the payment service.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
