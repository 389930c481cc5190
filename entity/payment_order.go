// Package entity defines data models for the ticketpay payment service.
package entity

import "time"

// OrderStatus is the state of a single checkout attempt.
type OrderStatus string

const (
	StatusCreated OrderStatus = "created"
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
	StatusFailed  OrderStatus = "failed"
	StatusExpired OrderStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusExpired
}

// CanTransition reports whether the state machine allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case StatusCreated:
		return next == StatusPending || next == StatusFailed
	case StatusPending:
		return next == StatusPaid || next == StatusFailed || next == StatusExpired
	}
	return false
}

// SourcesOf lists the states a transition into next may start from.
func SourcesOf(next OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, s := range []OrderStatus{StatusCreated, StatusPending} {
		if s.CanTransition(next) {
			sources = append(sources, s)
		}
	}
	return sources
}

// PaymentOrder is the stored record of a checkout attempt for a bus ticket.
type PaymentOrder struct {
	ReferenceId   string      `json:"reference_id" bson:"reference_id"`
	Description   string      `json:"description" bson:"description"`
	Amount        float64     `json:"amount" bson:"amount"`
	AmountMinor   int64       `json:"amount_minor" bson:"amount_minor"`
	ClientIp      string      `json:"client_ip" bson:"client_ip"`
	Status        OrderStatus `json:"status" bson:"status"`
	TimeOpened    time.Time   `json:"time_opened" bson:"time_opened"`
	ExpiresAt     time.Time   `json:"expires_at" bson:"expires_at"`
	TimeClosed    time.Time   `json:"time_closed,omitempty" bson:"time_closed,omitempty"`
	ResponseCode  string      `json:"response_code,omitempty" bson:"response_code,omitempty"`
	TransactionNo string      `json:"transaction_no,omitempty" bson:"transaction_no,omitempty"`
	BankCode      string      `json:"bank_code,omitempty" bson:"bank_code,omitempty"`
	PayDate       string      `json:"pay_date,omitempty" bson:"pay_date,omitempty"`
	FailReason    string      `json:"fail_reason,omitempty" bson:"fail_reason,omitempty"`
}

// PaymentResult holds the gateway data recorded when an order is closed.
type PaymentResult struct {
	ResponseCode  string
	TransactionNo string
	BankCode      string
	PayDate       string
	Reason        string
	Time          time.Time
}

// Apply copies result data to the order.
func (o *PaymentOrder) Apply(status OrderStatus, result *PaymentResult) {
	o.Status = status
	if result == nil {
		return
	}
	o.TimeClosed = result.Time
	o.ResponseCode = result.ResponseCode
	o.TransactionNo = result.TransactionNo
	o.BankCode = result.BankCode
	o.PayDate = result.PayDate
	o.FailReason = result.Reason
}
