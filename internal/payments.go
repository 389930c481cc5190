package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ticketpay/config"
	"ticketpay/entity"
	"ticketpay/internal/vnpay"
	"ticketpay/services"
)

const (
	messageConfirmed        = "Confirm Success"
	messageOrderNotFound    = "Order not found"
	messageAlreadyConfirmed = "Order already confirmed"
	messageInvalidAmount    = "Invalid amount"
	messageInvalidSignature = "Invalid signature"
	messageExpired          = "Payment expired"
	messageUnknownError     = "Unknown error"
)

// Payments runs checkout attempts against the payment gateway: it issues
// signed payment URLs and consumes the gateway callbacks. Callbacks for the
// same reference id are serialized with the locker, and the database applies
// every state change as a compare-and-set, so a repeated callback never
// changes an order twice.
type Payments struct {
	conf       *config.Config
	database   services.Database
	logger     services.LogHandler
	locker     services.Locker
	publisher  services.EventPublisher
	clock      services.Clock
	builder    *vnpay.Builder
	verifier   *vnpay.Verifier
	retries    int
	retryDelay time.Duration
}

// NewPayments creates the payment service. It fails when the merchant
// secret or gateway settings are missing, which must stop the service start.
func NewPayments(conf *config.Config, clock services.Clock) (*Payments, error) {
	signer, err := vnpay.NewSigner(conf.Merchant.Secret)
	if err != nil {
		return nil, err
	}
	builder, err := vnpay.NewBuilder(conf, signer, clock)
	if err != nil {
		return nil, err
	}
	retries := conf.Storage.RetryAttempts
	if retries < 1 {
		retries = 1
	}
	return &Payments{
		conf:       conf,
		clock:      clock,
		builder:    builder,
		verifier:   vnpay.NewVerifier(signer, clock),
		logger:     NewZapLogger("payments", zap.NewNop(), nil),
		locker:     NewLocalLocker(),
		retries:    retries,
		retryDelay: time.Duration(conf.Storage.RetryDelayMs) * time.Millisecond,
	}, nil
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

func (p *Payments) SetLocker(locker services.Locker) {
	p.locker = locker
}

func (p *Payments) SetPublisher(publisher services.EventPublisher) {
	p.publisher = publisher
}

// Checkout signs a payment request for the ticket order and records the
// attempt as pending. Nothing is stored when the request cannot be built.
func (p *Payments) Checkout(ctx context.Context, request *entity.CheckoutRequest) (*entity.CheckoutResponse, error) {
	if p.database == nil {
		return nil, fmt.Errorf("database not set")
	}

	signed, err := p.builder.Build(request)
	if err != nil {
		incCheckout("rejected")
		return nil, fmt.Errorf("build payment request %s: %w", request.ReferenceId, err)
	}

	order := &entity.PaymentOrder{
		ReferenceId: request.ReferenceId,
		Description: request.OrderDescription,
		Amount:      request.Amount,
		AmountMinor: signed.Request.AmountMinorUnits,
		ClientIp:    request.ClientIp,
		Status:      entity.StatusCreated,
		TimeOpened:  signed.Request.CreatedAt,
		ExpiresAt:   signed.Request.ExpiresAt,
	}
	if err = p.withRetry(ctx, func(ctx context.Context) error {
		return p.database.CreateOrder(ctx, order)
	}); err != nil {
		incCheckout("error")
		return nil, fmt.Errorf("save order %s: %w", request.ReferenceId, err)
	}

	if err = p.withRetry(ctx, func(ctx context.Context) error {
		return p.database.MarkPending(ctx, order.ReferenceId)
	}); err != nil {
		incCheckout("error")
		p.closeOrder(ctx, order.ReferenceId, entity.StatusFailed, &entity.PaymentResult{
			Reason: "redirect not issued",
			Time:   p.clock.Now(),
		})
		return nil, fmt.Errorf("mark order %s pending: %w", request.ReferenceId, err)
	}

	incCheckout("issued")
	p.logger.Info(fmt.Sprintf("[%s] payment issued: order %s; amount %d; signature %s",
		GetRequestID(ctx), order.ReferenceId, order.AmountMinor, secret(signed.Signature)))

	return &entity.CheckoutResponse{
		ReferenceId: order.ReferenceId,
		PaymentUrl:  signed.Url,
		ExpiresAt:   order.ExpiresAt,
	}, nil
}

// Notify handles the gateway IPN callback and returns the acknowledgment.
func (p *Payments) Notify(ctx context.Context, payload entity.CallbackPayload) *entity.IpnResponse {
	reqID := GetRequestID(ctx)
	codes := p.conf.Callback
	referenceId := payload[vnpay.ParamTxnRef]
	if referenceId == "" || p.database == nil {
		incCallback("not_found")
		return &entity.IpnResponse{RspCode: codes.CodeOrderNotFound, Message: messageOrderNotFound}
	}

	unlock, err := p.locker.Lock(ctx, referenceId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] notify %s: lock", reqID, referenceId), err)
		return &entity.IpnResponse{RspCode: codes.CodeUnknownError, Message: messageUnknownError}
	}
	defer unlock()

	var order *entity.PaymentOrder
	err = p.withRetry(ctx, func(ctx context.Context) error {
		order, err = p.database.GetOrder(ctx, referenceId)
		return err
	})
	if errors.Is(err, services.ErrOrderNotFound) || (err == nil && order.Status == entity.StatusCreated) {
		incCallback("not_found")
		p.logger.Warn(fmt.Sprintf("[%s] notify: no pending order %s", reqID, referenceId))
		return &entity.IpnResponse{RspCode: codes.CodeOrderNotFound, Message: messageOrderNotFound}
	}
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] notify %s: get order", reqID, referenceId), err)
		return &entity.IpnResponse{RspCode: codes.CodeUnknownError, Message: messageUnknownError}
	}
	if order.Status.IsTerminal() {
		incCallback("duplicate")
		p.logger.Info(fmt.Sprintf("[%s] notify: order %s already %s", reqID, referenceId, order.Status))
		return &entity.IpnResponse{RspCode: codes.CodeAlreadyConfirmed, Message: messageAlreadyConfirmed}
	}

	result := p.verifier.Verify(payload, vnpay.Expectation{
		AmountMinor: order.AmountMinor,
		ExpiresAt:   order.ExpiresAt,
	})
	incCallback(result.Outcome.String())
	p.logger.Info(fmt.Sprintf("[%s] notify: order %s; outcome %s; response %s; transaction %s",
		reqID, referenceId, result.Outcome, result.ResponseCode, result.TransactionNo))

	paymentResult := &entity.PaymentResult{
		ResponseCode:  result.ResponseCode,
		TransactionNo: result.TransactionNo,
		BankCode:      result.BankCode,
		PayDate:       result.PayDate,
		Time:          p.clock.Now(),
	}

	switch result.Outcome {
	case vnpay.OutcomeValid:
		return p.finish(ctx, order, entity.StatusPaid, paymentResult, codes.CodeConfirmed, messageConfirmed)
	case vnpay.OutcomeSignatureMismatch:
		p.logger.Warn(fmt.Sprintf("[%s] notify: order %s rejected: %v", reqID, referenceId, result.Err))
		return &entity.IpnResponse{RspCode: codes.CodeInvalidSignature, Message: messageInvalidSignature}
	case vnpay.OutcomeAmountMismatch:
		paymentResult.Reason = result.Err.Error()
		return p.finish(ctx, order, entity.StatusFailed, paymentResult, codes.CodeInvalidAmount, messageInvalidAmount)
	case vnpay.OutcomeExpired:
		paymentResult.Reason = result.Err.Error()
		return p.finish(ctx, order, entity.StatusFailed, paymentResult, codes.CodeExpired, messageExpired)
	default:
		paymentResult.Reason = result.Err.Error()
		return p.finish(ctx, order, entity.StatusFailed, paymentResult, codes.CodeConfirmed, messageConfirmed)
	}
}

// finish writes the terminal state. The verification result is reused on
// every retry; only the storage write is repeated.
func (p *Payments) finish(ctx context.Context, order *entity.PaymentOrder, status entity.OrderStatus,
	result *entity.PaymentResult, code, message string) *entity.IpnResponse {

	err := p.closeOrder(ctx, order.ReferenceId, status, result)
	if errors.Is(err, services.ErrOrderNotPending) {
		return &entity.IpnResponse{RspCode: p.conf.Callback.CodeAlreadyConfirmed, Message: messageAlreadyConfirmed}
	}
	if err != nil {
		return &entity.IpnResponse{RspCode: p.conf.Callback.CodeUnknownError, Message: messageUnknownError}
	}
	return &entity.IpnResponse{RspCode: code, Message: message}
}

// closeOrder moves an order to a terminal state and publishes the outcome.
func (p *Payments) closeOrder(ctx context.Context, referenceId string, status entity.OrderStatus, result *entity.PaymentResult) error {
	err := p.withRetry(ctx, func(ctx context.Context) error {
		switch status {
		case entity.StatusPaid:
			return p.database.MarkPaid(ctx, referenceId, result)
		case entity.StatusExpired:
			return p.database.MarkExpired(ctx, referenceId, result)
		default:
			return p.database.MarkFailed(ctx, referenceId, result)
		}
	})
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] close order %s as %s", GetRequestID(ctx), referenceId, status), err)
		return err
	}

	order, err := p.database.GetOrder(ctx, referenceId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("close order %s: reload", referenceId), err)
		return nil
	}
	p.publish(ctx, order)
	return nil
}

func (p *Payments) publish(ctx context.Context, order *entity.PaymentOrder) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event := &entity.PaymentEvent{
		ReferenceId:  order.ReferenceId,
		Status:       order.Status,
		Amount:       order.Amount,
		ResponseCode: order.ResponseCode,
		Reason:       order.FailReason,
		Time:         p.clock.Now(),
	}
	if err := p.publisher.PublishPaymentEvent(ctx, event); err != nil {
		p.logger.Error(fmt.Sprintf("publish event for order %s", order.ReferenceId), err)
	}
}

// Return checks the signature of the browser return. The order state is only
// changed by the IPN callback.
func (p *Payments) Return(ctx context.Context, payload entity.CallbackPayload) *entity.ReturnResult {
	result, err := p.verifier.VerifySignature(payload)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("[%s] return: order %s rejected: %v", GetRequestID(ctx), result.ReferenceId, err))
		return &entity.ReturnResult{
			ReferenceId:  result.ReferenceId,
			ResponseCode: result.ResponseCode,
			Message:      messageInvalidSignature,
		}
	}
	message := "Payment completed"
	if !result.Success() {
		message = "Payment not completed"
	}
	return &entity.ReturnResult{
		ReferenceId:  result.ReferenceId,
		Success:      result.Success(),
		ResponseCode: result.ResponseCode,
		Message:      message,
	}
}

// ExpireOrders closes pending orders whose payment window has passed.
func (p *Payments) ExpireOrders(ctx context.Context, limit int) (int, error) {
	if p.database == nil {
		return 0, fmt.Errorf("database not set")
	}
	now := p.clock.Now()
	orders, err := p.database.GetExpiredOrders(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("get expired orders: %w", err)
	}

	expired := 0
	for _, order := range orders {
		unlock, err := p.locker.Lock(ctx, order.ReferenceId)
		if err != nil {
			return expired, err
		}
		err = p.closeOrder(ctx, order.ReferenceId, entity.StatusExpired, &entity.PaymentResult{
			Reason: "payment window closed",
			Time:   now,
		})
		unlock()
		if err == nil {
			expired++
		}
	}
	expiredOrdersTotal.Add(float64(expired))
	return expired, nil
}

// withRetry repeats op on transient storage errors with exponential backoff.
func (p *Payments) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < p.retries; attempt++ {
		if attempt > 0 {
			storageRetryTotal.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt)):
			}
		}
		err = op(ctx)
		if err == nil || !errors.Is(err, services.ErrStorageTransient) {
			return err
		}
	}
	return err
}

func (p *Payments) backoff(attempt int) time.Duration {
	delay := p.retryDelay << (attempt - 1)
	if limit := 5 * time.Second; delay > limit || delay < 0 {
		delay = limit
	}
	return delay
}

func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
