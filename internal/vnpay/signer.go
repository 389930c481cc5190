package vnpay

import (
	"crypto/hmac"
	"fmt"
	"strings"

	"gitee.com/golang-module/dongle"
)

// Signer computes the gateway signature, HMAC-SHA512 of the canonical string
// encoded as lowercase hex. The key is fixed at construction.
type Signer struct {
	secret string
}

// NewSigner fails when the secret is empty; call it at startup so a
// misconfigured deployment never serves a checkout.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is empty", ErrConfiguration)
	}
	return &Signer{secret: secret}, nil
}

func (s *Signer) Sign(canonical string) string {
	return dongle.Encrypt.FromString(canonical).ByHmacSha512(s.secret).ToHexString()
}

// Verify compares the signature of canonical with the received one in
// constant time. The received signature is accepted in either hex case.
func (s *Signer) Verify(canonical, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.Sign(canonical)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// String never exposes the key.
func (s *Signer) String() string {
	return "Signer{HMAC-SHA512}"
}
