package vnpay

import (
	"errors"
	"fmt"

	"ticketpay/config"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrExpired           = errors.New("payment expired")
	// ErrConfiguration is shared with the config package so startup checks
	// and signer construction report the same kind.
	ErrConfiguration = config.ErrConfiguration
)

// ParameterError names the parameter that failed canonicalization.
type ParameterError struct {
	Key    string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Key, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}
