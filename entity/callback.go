package entity

import "net/url"

// CallbackPayload is the parameter set received from the gateway on IPN or
// browser return, including the gateway signature.
type CallbackPayload map[string]string

// NewCallbackPayload keeps the first value of every query parameter.
func NewCallbackPayload(values url.Values) CallbackPayload {
	payload := make(CallbackPayload, len(values))
	for key := range values {
		payload[key] = values.Get(key)
	}
	return payload
}

// IpnResponse is the acknowledgment body expected by the gateway.
type IpnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// ReturnResult is reported to the customer browser after the gateway redirect.
type ReturnResult struct {
	ReferenceId  string `json:"reference_id"`
	Success      bool   `json:"success"`
	ResponseCode string `json:"response_code"`
	Message      string `json:"message"`
}
