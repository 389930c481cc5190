package internal

import (
	"context"
	"fmt"
	"time"

	"ticketpay/services"
)

// ExpiryJob periodically moves pending orders past their expiry to expired.
type ExpiryJob struct {
	payments  *Payments
	interval  time.Duration
	batchSize int
	logger    services.LogHandler
}

func NewExpiryJob(payments *Payments, interval time.Duration, batchSize int, logger services.LogHandler) *ExpiryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryJob{
		payments:  payments,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks until ctx is done.
func (j *ExpiryJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *ExpiryJob) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("panic in expiry job", fmt.Errorf("panic: %v", r))
		}
	}()
	count, err := j.payments.ExpireOrders(ctx, j.batchSize)
	if err != nil {
		j.logger.Error("expire orders", err)
	}
	if count > 0 {
		j.logger.Info(fmt.Sprintf("expired %d orders", count))
	}
}
