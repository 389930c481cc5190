package vnpay

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"ticketpay/config"
	"ticketpay/entity"
	"ticketpay/services"
)

// Builder turns checkout inputs into signed payment URLs.
type Builder struct {
	conf     *config.Config
	signer   *Signer
	clock    services.Clock
	location *time.Location
}

func NewBuilder(conf *config.Config, signer *Signer, clock services.Clock) (*Builder, error) {
	if conf.Merchant.RequestUrl == "" {
		return nil, fmt.Errorf("%w: gateway url is not set", ErrConfiguration)
	}
	location, err := conf.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: time zone: %v", ErrConfiguration, err)
	}
	return &Builder{
		conf:     conf,
		signer:   signer,
		clock:    clock,
		location: location,
	}, nil
}

// NewRequest fills the protocol fields around the checkout inputs.
func (b *Builder) NewRequest(checkout *entity.CheckoutRequest) (*entity.PaymentRequest, error) {
	amount, err := MinorUnits(checkout.Amount)
	if err != nil {
		return nil, err
	}
	now := b.clock.Now().In(b.location).Truncate(time.Second)

	return &entity.PaymentRequest{
		MerchantCode:     b.conf.Merchant.Code,
		Version:          b.conf.Merchant.Version,
		Command:          b.conf.Merchant.Command,
		Locale:           b.conf.Merchant.Locale,
		Currency:         b.conf.Merchant.Currency,
		ReferenceId:      checkout.ReferenceId,
		OrderDescription: checkout.OrderDescription,
		OrderType:        b.conf.Merchant.OrderType,
		AmountMinorUnits: amount,
		ReturnUrl:        b.conf.Merchant.ReturnUrl,
		ClientIp:         checkout.ClientIp,
		CreatedAt:        now,
		ExpiresAt:        now.Add(b.conf.Validity()),
	}, nil
}

// Build creates and signs the payment request of a checkout attempt.
func (b *Builder) Build(checkout *entity.CheckoutRequest) (*entity.SignedRequest, error) {
	request, err := b.NewRequest(checkout)
	if err != nil {
		return nil, err
	}
	return b.Sign(request)
}

// Sign canonicalizes and signs a complete payment request.
func (b *Builder) Sign(request *entity.PaymentRequest) (*entity.SignedRequest, error) {
	params, err := RequestParams(request, b.location)
	if err != nil {
		return nil, err
	}
	canonical, err := Canonicalize(params)
	if err != nil {
		return nil, err
	}
	signature := b.signer.Sign(canonical)

	separator := "?"
	if strings.Contains(b.conf.Merchant.RequestUrl, "?") {
		separator = "&"
	}
	paymentUrl := b.conf.Merchant.RequestUrl + separator + canonical + "&" + ParamSecureHash + "=" + signature

	return &entity.SignedRequest{
		Request:   *request,
		Canonical: canonical,
		Signature: signature,
		Url:       paymentUrl,
	}, nil
}

// RequestParams converts a payment request to gateway parameters, every value
// in its canonical string form.
func RequestParams(request *entity.PaymentRequest, location *time.Location) (map[string]string, error) {
	if request.AmountMinorUnits <= 0 {
		return nil, fmt.Errorf("%w: %d minor units", ErrInvalidAmount, request.AmountMinorUnits)
	}
	amount, err := cast.ToStringE(request.AmountMinorUnits)
	if err != nil {
		return nil, &ParameterError{Key: ParamAmount, Reason: err.Error()}
	}
	return map[string]string{
		ParamVersion:    request.Version,
		ParamCommand:    request.Command,
		ParamTmnCode:    request.MerchantCode,
		ParamLocale:     request.Locale,
		ParamCurrCode:   request.Currency,
		ParamTxnRef:     request.ReferenceId,
		ParamOrderInfo:  request.OrderDescription,
		ParamOrderType:  request.OrderType,
		ParamAmount:     amount,
		ParamReturnUrl:  request.ReturnUrl,
		ParamIpAddr:     request.ClientIp,
		ParamCreateDate: FormatTimestamp(request.CreatedAt, location),
		ParamExpireDate: FormatTimestamp(request.ExpiresAt, location),
	}, nil
}

// FormatTimestamp renders t in the gateway layout; the zero time renders empty.
func FormatTimestamp(t time.Time, location *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location).Format(TimestampLayout)
}

// ParseTimestamp reads a gateway timestamp in the gateway time zone.
func ParseTimestamp(value string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, value, location)
}

// MinorUnits converts an amount in major units to minor units, amount × 100
// with any remaining fraction truncated. The decimal representation of the
// amount is used so 0.29 gives 29, not 28.
func MinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	whole, fraction, _ := strings.Cut(strconv.FormatFloat(amount, 'f', -1, 64), ".")
	fraction = (fraction + "00")[:2]
	minor, err := strconv.ParseInt(whole+fraction, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if minor <= 0 {
		return 0, fmt.Errorf("%w: %v is below one minor unit", ErrInvalidAmount, amount)
	}
	return minor, nil
}
