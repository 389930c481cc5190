package vnpay

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_SortsKeysByByteOrder(t *testing.T) {
	canonical, err := Canonicalize(map[string]string{
		"vnp_TxnRef":     "TICKET-42",
		"vnp_Amount":     "15000000",
		"vnp_CurrCode":   "VND",
		"vnp_CreateDate": "20241122100000",
		"vnp_OrderInfo":  "Bus ticket",
	})

	require.NoError(t, err)
	assert.Equal(t, "vnp_Amount=15000000&vnp_CreateDate=20241122100000&vnp_CurrCode=VND&vnp_OrderInfo=Bus%2Bticket&vnp_TxnRef=TICKET-42", canonical)
}

func TestCanonicalize_PermutationInvariance(t *testing.T) {
	keys := []string{"vnp_Version", "vnp_Command", "vnp_TmnCode", "vnp_Amount", "vnp_OrderInfo", "vnp_IpAddr", "a", "B", "_x"}
	values := []string{"2.1.0", "pay", "CODE", "100", "Vé xe khách", "1.2.3.4", "1", "2", "3"}

	reference := make(map[string]string)
	for i, key := range keys {
		reference[key] = values[i]
	}
	expected, err := Canonicalize(reference)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		order := rng.Perm(len(keys))
		params := make(map[string]string)
		for _, idx := range order {
			params[keys[idx]] = values[idx]
		}
		canonical, err := Canonicalize(params)
		require.NoError(t, err)
		assert.Equal(t, expected, canonical)
	}
}

func TestCanonicalize_RejectsEmptyValue(t *testing.T) {
	_, err := Canonicalize(map[string]string{
		"vnp_Amount":    "100",
		"vnp_OrderInfo": "",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	var paramErr *ParameterError
	require.True(t, errors.As(err, &paramErr))
	assert.Equal(t, "vnp_OrderInfo", paramErr.Key)
}

func TestCanonicalize_RejectsEmptySet(t *testing.T) {
	_, err := Canonicalize(map[string]string{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "TICKET-42", "TICKET-42"},
		{"space becomes encoded plus", "Bus ticket", "Bus%2Bticket"},
		{"literal plus", "a+b", "a%2Bb"},
		{"url", "https://x.vn/r?a=1&b=2", "https%3A%2F%2Fx.vn%2Fr%3Fa%3D1%26b%3D2"},
		{"unreserved marks", "-_.!~*'()", "-_.!~*'()"},
		{"utf8", "Vé", "V%C3%A9"},
		{"percent", "100%", "100%25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeValue(tt.value))
		})
	}
}

func TestCanonicalizeCallback_ExcludesSignatureFields(t *testing.T) {
	payload := map[string]string{
		"vnp_Amount":         "100",
		"vnp_TxnRef":         "T1",
		"vnp_SecureHash":     "abc",
		"vnp_SecureHashType": "HmacSHA512",
		"utm_source":         "mail",
	}

	canonical, err := CanonicalizeCallback(payload)

	require.NoError(t, err)
	assert.Equal(t, "vnp_Amount=100&vnp_TxnRef=T1", canonical)
	assert.Contains(t, payload, "vnp_SecureHash", "input must not be modified")
}
