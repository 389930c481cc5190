package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"ticketpay/config"
	"ticketpay/entity"
	"ticketpay/internal/vnpay"
	"ticketpay/services"
)

const (
	createPayment = "/payment"
	paymentNotify = "/payment/ipn"
	paymentReturn = "/payment/return"
	metricsPath   = "/metrics"

	maxBodySize = 1 << 16

	// shown to clients instead of the internal error
	checkoutFailedMessage = "payment could not be initiated"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
	proxies    *TrustedProxies
}

func NewServer(conf *config.Config) (*Server, error) {
	proxies, err := NewTrustedProxies(conf.Listen.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	server := Server{
		conf:    conf,
		proxies: proxies,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	handler := cors.New(cors.Options{
		AllowedOrigins: conf.Listen.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)

	server.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &server, nil
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createPayment, s.createPayment)
	router.GET(paymentNotify, s.paymentNotify)
	router.GET(paymentReturn, s.paymentReturn)
	router.Handler(http.MethodGet, metricsPath, promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := RequestContext(r)
	reqID := GetRequestID(ctx)

	var request entity.CheckoutRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := decoder.Decode(&request); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] create payment: decode request body: %v", reqID, err))
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": checkoutFailedMessage})
		return
	}
	request.ClientIp = s.proxies.ClientIP(r)

	s.logger.Info(fmt.Sprintf("[%s] processing request: create payment %s, amount %v", reqID, request.ReferenceId, request.Amount))
	response, err := s.payments.Checkout(ctx, &request)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] create payment %s", reqID, request.ReferenceId), err)
		status := http.StatusInternalServerError
		if errors.Is(err, vnpay.ErrInvalidParameter) || errors.Is(err, vnpay.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, map[string]string{"error": checkoutFailedMessage})
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := RequestContext(r)

	payload := entity.NewCallbackPayload(r.URL.Query())
	response := s.payments.Notify(ctx, payload)

	// the gateway expects 200 with the code in the body
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) paymentReturn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := RequestContext(r)

	payload := entity.NewCallbackPayload(r.URL.Query())
	result := s.payments.Return(ctx, payload)

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", err)
	}
}
