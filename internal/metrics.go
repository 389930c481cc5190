package internal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	checkoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketpay",
			Name:      "checkout_total",
			Help:      "Checkout attempts by result",
		},
		[]string{"result"},
	)

	callbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketpay",
			Name:      "callback_total",
			Help:      "Gateway callbacks by verification outcome",
		},
		[]string{"outcome"},
	)

	storageRetryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ticketpay",
			Name:      "storage_retry_total",
			Help:      "Order state writes retried after a transient storage error",
		},
	)

	expiredOrdersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ticketpay",
			Name:      "expired_orders_total",
			Help:      "Pending orders closed by the expiry job",
		},
	)
)

func init() {
	prometheus.MustRegister(checkoutTotal, callbackTotal, storageRetryTotal, expiredOrdersTotal)
}

func incCheckout(result string) {
	checkoutTotal.WithLabelValues(result).Inc()
}

func incCallback(outcome string) {
	callbackTotal.WithLabelValues(outcome).Inc()
}
