package vnpay

import (
	"sort"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// Canonicalize serializes params as k1=v1&k2=v2... with keys in ascending
// byte order. Spaces in values are replaced with '+' and the result is
// percent-encoded the way encodeURIComponent does it, so '+' itself is sent
// as %2B. Keys are written as is.
//
// The output depends only on the content of params, never on the order the
// map was filled in. An empty key or value is rejected.
func Canonicalize(params map[string]string) (string, error) {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if key == "" {
			return "", &ParameterError{Key: key, Reason: "empty name"}
		}
		if value == "" {
			return "", &ParameterError{Key: key, Reason: "empty value"}
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return "", &ParameterError{Reason: "no parameters"}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(EncodeValue(params[key]))
	}
	return b.String(), nil
}

// CanonicalizeCallback canonicalizes the signed part of a gateway callback:
// fields carrying the vnp_ prefix except the signature fields themselves.
func CanonicalizeCallback(payload map[string]string) (string, error) {
	signed := make(map[string]string, len(payload))
	for key, value := range payload {
		if key == ParamSecureHash || key == ParamSecureHashType {
			continue
		}
		if !strings.HasPrefix(key, paramPrefix) {
			continue
		}
		signed[key] = value
	}
	return Canonicalize(signed)
}

// EncodeValue applies the value encoding used by Canonicalize.
func EncodeValue(value string) string {
	value = strings.ReplaceAll(value, " ", "+")
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

// isUnreserved matches the characters encodeURIComponent leaves untouched.
func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
