package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticketpay/config"
	"ticketpay/entity"
	"ticketpay/internal/vnpay"
	"ticketpay/services"
)

const testSecret = "testkey"

// 10:00:00 in the gateway time zone
var testTime = time.Date(2024, 11, 22, 3, 0, 0, 0, time.UTC)

type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Listen.AllowedOrigins = []string{"*"}
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
	conf.Callback.CodeConfirmed = "00"
	conf.Callback.CodeOrderNotFound = "01"
	conf.Callback.CodeAlreadyConfirmed = "02"
	conf.Callback.CodeInvalidAmount = "04"
	conf.Callback.CodeInvalidSignature = "97"
	conf.Callback.CodeExpired = "02"
	conf.Callback.CodeUnknownError = "99"
	conf.Storage.RetryAttempts = 3
	conf.Storage.RetryDelayMs = 1
	return conf
}

func nopLogger() *Logger {
	return NewZapLogger("test", zap.NewNop(), nil)
}

func newTestPayments(t *testing.T, database services.Database) (*Payments, *testClock) {
	t.Helper()
	clock := &testClock{now: testTime}
	payments, err := NewPayments(testConfig(), clock)
	require.NoError(t, err)
	payments.SetDatabase(database)
	payments.SetLogger(nopLogger())
	return payments, clock
}

func checkout(t *testing.T, payments *Payments, referenceId string) *entity.CheckoutResponse {
	t.Helper()
	response, err := payments.Checkout(context.Background(), &entity.CheckoutRequest{
		ReferenceId:      referenceId,
		Amount:           150000,
		OrderDescription: "Bus ticket",
		ClientIp:         "1.2.3.4",
	})
	require.NoError(t, err)
	return response
}

func callbackParams(referenceId string) map[string]string {
	return map[string]string{
		vnpay.ParamAmount:            "15000000",
		vnpay.ParamBankCode:          "NCB",
		vnpay.ParamOrderInfo:         "Bus ticket",
		vnpay.ParamPayDate:           "20241122100512",
		vnpay.ParamResponseCode:      "00",
		vnpay.ParamTmnCode:           "TESTCODE",
		vnpay.ParamTransactionNo:     "14226112",
		vnpay.ParamTransactionStatus: "00",
		vnpay.ParamTxnRef:            referenceId,
	}
}

func signedCallback(t *testing.T, params map[string]string) entity.CallbackPayload {
	t.Helper()
	signer, err := vnpay.NewSigner(testSecret)
	require.NoError(t, err)
	canonical, err := vnpay.Canonicalize(params)
	require.NoError(t, err)
	payload := entity.CallbackPayload{}
	for k, v := range params {
		payload[k] = v
	}
	payload[vnpay.ParamSecureHash] = signer.Sign(canonical)
	payload[vnpay.ParamSecureHashType] = "HmacSHA512"
	return payload
}

// flakyDB fails selected operations a given number of times.
type flakyDB struct {
	*MemoryDB
	mutex    sync.Mutex
	failures map[string]int
	err      error
}

func newFlakyDB(err error) *flakyDB {
	return &flakyDB{
		MemoryDB: NewMemoryDB(),
		failures: make(map[string]int),
		err:      err,
	}
}

func (f *flakyDB) failNext(op string, times int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failures[op] = times
}

func (f *flakyDB) fail(op string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failures[op] > 0 {
		f.failures[op]--
		return f.err
	}
	return nil
}

func (f *flakyDB) MarkPending(ctx context.Context, referenceId string) error {
	if err := f.fail("pending"); err != nil {
		return err
	}
	return f.MemoryDB.MarkPending(ctx, referenceId)
}

func (f *flakyDB) MarkPaid(ctx context.Context, referenceId string, result *entity.PaymentResult) error {
	if err := f.fail("paid"); err != nil {
		return err
	}
	return f.MemoryDB.MarkPaid(ctx, referenceId, result)
}

func (f *flakyDB) GetOrder(ctx context.Context, referenceId string) (*entity.PaymentOrder, error) {
	if err := f.fail("get"); err != nil {
		return nil, err
	}
	return f.MemoryDB.GetOrder(ctx, referenceId)
}
