package vnpay

import (
	"time"

	"ticketpay/config"
)

const testSecret = "testkey"

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

// 10:00:00 in the gateway time zone
var testTime = time.Date(2024, 11, 22, 3, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Merchant.Code = "TESTCODE"
	conf.Merchant.Secret = testSecret
	conf.Merchant.RequestUrl = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	conf.Merchant.ReturnUrl = "https://ticket.example.com/payment/return"
	conf.Merchant.Version = "2.1.0"
	conf.Merchant.Command = "pay"
	conf.Merchant.Locale = "vn"
	conf.Merchant.Currency = "VND"
	conf.Merchant.OrderType = "other"
	conf.Merchant.TimeZone = "Asia/Ho_Chi_Minh"
	conf.Merchant.ValidityMinutes = 10
	return conf
}
