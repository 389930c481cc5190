// Package vnpay implements the VNPay payment request signing protocol:
// canonicalization of parameter sets, HMAC-SHA512 signing, payment URL
// construction and verification of gateway callbacks.
package vnpay

// Parameter names fixed by the gateway API.
const (
	ParamVersion           = "vnp_Version"
	ParamCommand           = "vnp_Command"
	ParamTmnCode           = "vnp_TmnCode"
	ParamLocale            = "vnp_Locale"
	ParamCurrCode          = "vnp_CurrCode"
	ParamTxnRef            = "vnp_TxnRef"
	ParamOrderInfo         = "vnp_OrderInfo"
	ParamOrderType         = "vnp_OrderType"
	ParamAmount            = "vnp_Amount"
	ParamReturnUrl         = "vnp_ReturnUrl"
	ParamIpAddr            = "vnp_IpAddr"
	ParamCreateDate        = "vnp_CreateDate"
	ParamExpireDate        = "vnp_ExpireDate"
	ParamResponseCode      = "vnp_ResponseCode"
	ParamTransactionStatus = "vnp_TransactionStatus"
	ParamTransactionNo     = "vnp_TransactionNo"
	ParamBankCode          = "vnp_BankCode"
	ParamPayDate           = "vnp_PayDate"
	ParamSecureHash        = "vnp_SecureHash"
	ParamSecureHashType    = "vnp_SecureHashType"
)

// paramPrefix marks the fields covered by the gateway signature.
const paramPrefix = "vnp_"

// TimestampLayout is the gateway date format, yyyyMMddHHmmss.
const TimestampLayout = "20060102150405"

// CodeSuccess is the gateway response and transaction status of a completed payment.
const CodeSuccess = "00"
