package internal

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", " "})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		expected  string
	}{
		{"direct client", "1.2.3.4:5000", "", "", "1.2.3.4"},
		{"untrusted peer ignores headers", "1.2.3.4:5000", "5.6.7.8", "9.9.9.9", "1.2.3.4"},
		{"trusted proxy", "10.0.0.5:5000", "5.6.7.8", "", "5.6.7.8"},
		{"proxy chain", "10.0.0.5:5000", "6.6.6.6, 5.6.7.8, 10.0.0.7", "", "5.6.7.8"},
		{"single host proxy", "192.168.1.10:5000", "5.6.7.8", "", "5.6.7.8"},
		{"real ip header", "10.0.0.5:5000", "", "5.6.7.8", "5.6.7.8"},
		{"only proxies", "10.0.0.5:5000", "10.0.0.7", "", "10.0.0.5"},
		{"no port", "1.2.3.4", "", "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/payment", nil)
			request.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.expected, proxies.ClientIP(request))
		})
	}
}

func TestNewTrustedProxies_Invalid(t *testing.T) {
	_, err := NewTrustedProxies([]string{"10.0.0.0/99"})

	assert.Error(t, err)
}
