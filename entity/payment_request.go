package entity

import "time"

// PaymentRequest holds every parameter of an outbound gateway payment request.
// All fields must be set before the request is canonicalized and signed.
type PaymentRequest struct {
	// MerchantCode is the terminal code issued by the gateway (vnp_TmnCode)
	MerchantCode string `json:"vnp_TmnCode"`
	// Version of the gateway API (vnp_Version), "2.1.0"
	Version string `json:"vnp_Version"`
	// Command, "pay" for a purchase (vnp_Command)
	Command string `json:"vnp_Command"`
	// Locale of the gateway payment page: "vn" or "en" (vnp_Locale)
	Locale string `json:"vnp_Locale"`
	// Currency code, "VND" (vnp_CurrCode)
	Currency string `json:"vnp_CurrCode"`
	// ReferenceId is unique per checkout attempt (vnp_TxnRef)
	ReferenceId string `json:"vnp_TxnRef"`
	// OrderDescription is shown to the customer (vnp_OrderInfo)
	OrderDescription string `json:"vnp_OrderInfo"`
	// OrderType category code (vnp_OrderType)
	OrderType string `json:"vnp_OrderType"`
	// AmountMinorUnits is the amount multiplied by 100 (vnp_Amount)
	AmountMinorUnits int64 `json:"vnp_Amount"`
	// ReturnUrl receives the customer after payment (vnp_ReturnUrl)
	ReturnUrl string `json:"vnp_ReturnUrl"`
	// ClientIp of the customer (vnp_IpAddr)
	ClientIp string `json:"vnp_IpAddr"`
	// CreatedAt and ExpiresAt are sent in the gateway time zone as yyyyMMddHHmmss
	CreatedAt time.Time `json:"vnp_CreateDate"`
	ExpiresAt time.Time `json:"vnp_ExpireDate"`
}

// CheckoutRequest carries the business-level inputs of a checkout attempt.
type CheckoutRequest struct {
	ReferenceId      string  `json:"reference_id"`
	Amount           float64 `json:"amount"`
	OrderDescription string  `json:"order_description"`
	ClientIp         string  `json:"-"`
}

// CheckoutResponse is returned to the client that started the checkout.
type CheckoutResponse struct {
	ReferenceId string    `json:"reference_id"`
	PaymentUrl  string    `json:"payment_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
