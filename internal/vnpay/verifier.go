package vnpay

import (
	"fmt"
	"strconv"
	"time"

	"ticketpay/entity"
	"ticketpay/services"
)

// Outcome is the decision taken on a gateway callback.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeSignatureMismatch
	OutcomeExpired
	OutcomeAmountMismatch
	OutcomeDeclined
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeSignatureMismatch:
		return "signature_mismatch"
	case OutcomeExpired:
		return "expired"
	case OutcomeAmountMismatch:
		return "amount_mismatch"
	case OutcomeDeclined:
		return "declined"
	}
	return "unknown"
}

// Expectation describes the pending order a callback must match.
type Expectation struct {
	AmountMinor int64
	ExpiresAt   time.Time
}

// Result carries the outcome and the callback fields the caller records.
type Result struct {
	Outcome           Outcome
	ReferenceId       string
	AmountMinor       int64
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PayDate           string
	Err               error
}

// Success reports whether the gateway declared the payment completed.
func (r *Result) Success() bool {
	if r.ResponseCode != CodeSuccess {
		return false
	}
	// vnp_TransactionStatus is not sent on every callback version
	return r.TransactionStatus == "" || r.TransactionStatus == CodeSuccess
}

// Verifier checks gateway callbacks with the same canonicalization and key
// used to sign outbound requests.
type Verifier struct {
	signer *Signer
	clock  services.Clock
}

func NewVerifier(signer *Signer, clock services.Clock) *Verifier {
	return &Verifier{
		signer: signer,
		clock:  clock,
	}
}

// VerifySignature authenticates the payload without any order context.
// The returned Result is filled from the payload even when verification fails.
func (v *Verifier) VerifySignature(payload entity.CallbackPayload) (*Result, error) {
	result := readResult(payload)
	canonical, err := CanonicalizeCallback(payload)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if !v.signer.Verify(canonical, payload[ParamSecureHash]) {
		return result, ErrSignatureMismatch
	}
	return result, nil
}

// Verify decides on a callback for a known pending order. Expiry is checked
// first and rejects the callback whatever its signature.
func (v *Verifier) Verify(payload entity.CallbackPayload, expect Expectation) *Result {
	if !expect.ExpiresAt.IsZero() && v.clock.Now().After(expect.ExpiresAt) {
		result := readResult(payload)
		result.Outcome = OutcomeExpired
		result.Err = ErrExpired
		return result
	}

	result, err := v.VerifySignature(payload)
	if err != nil {
		result.Outcome = OutcomeSignatureMismatch
		result.Err = err
		return result
	}
	if result.AmountMinor != expect.AmountMinor {
		result.Outcome = OutcomeAmountMismatch
		result.Err = fmt.Errorf("%w: received %d, expected %d", ErrInvalidAmount, result.AmountMinor, expect.AmountMinor)
		return result
	}
	if !result.Success() {
		result.Outcome = OutcomeDeclined
		result.Err = fmt.Errorf("gateway response %s, status %s", result.ResponseCode, result.TransactionStatus)
		return result
	}
	result.Outcome = OutcomeValid
	return result
}

func readResult(payload entity.CallbackPayload) *Result {
	result := &Result{
		ReferenceId:       payload[ParamTxnRef],
		ResponseCode:      payload[ParamResponseCode],
		TransactionStatus: payload[ParamTransactionStatus],
		TransactionNo:     payload[ParamTransactionNo],
		BankCode:          payload[ParamBankCode],
		PayDate:           payload[ParamPayDate],
		AmountMinor:       -1,
	}
	if amount, err := strconv.ParseInt(payload[ParamAmount], 10, 64); err == nil {
		result.AmountMinor = amount
	}
	return result
}
