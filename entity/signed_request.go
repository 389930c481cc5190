package entity

// SignedRequest is a canonicalized and signed payment request, ready to be
// sent to the customer as a redirect. It is not modified after creation.
type SignedRequest struct {
	Request   PaymentRequest
	Canonical string
	Signature string
	Url       string
}
