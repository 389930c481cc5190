// Package config provides configuration management for the ticketpay payment service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrConfiguration is returned when a deployment is missing a value the
// payment gateway integration cannot run without.
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the ticketpay payment service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug    bool  `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	LogRecords int64 `yaml:"log_records" env:"LOG_RECORDS" env-default:"0"`
	Listen     struct {
		BindIP         string   `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port           string   `yaml:"port" env:"PORT" env-default:"5100"`
		TLS            bool     `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile       string   `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile        string   `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
		TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"ticketpay"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled   bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Address   string `yaml:"address" env:"REDIS_ADDRESS" env-default:"127.0.0.1:6379"`
		Password  string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"ticketpay"`
		LockTTL   int    `yaml:"lock_ttl_seconds" env:"REDIS_LOCK_TTL" env-default:"30"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"ticket-payments"`
	} `yaml:"kafka"`
	Merchant struct {
		// Code is the terminal code (vnp_TmnCode) issued by the gateway.
		Code       string `yaml:"code" env:"MERCHANT_CODE" env-default:""`
		Secret     string `yaml:"secret" env:"MERCHANT_SECRET"`
		RequestUrl string `yaml:"request_url" env:"MERCHANT_REQUEST_URL" env-default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
		ReturnUrl  string `yaml:"return_url" env:"MERCHANT_RETURN_URL" env-default:""`
		Version    string `yaml:"version" env:"MERCHANT_VERSION" env-default:"2.1.0"`
		Command    string `yaml:"command" env:"MERCHANT_COMMAND" env-default:"pay"`
		Locale     string `yaml:"locale" env:"MERCHANT_LOCALE" env-default:"vn"`
		Currency   string `yaml:"currency" env:"MERCHANT_CURRENCY" env-default:"VND"`
		OrderType  string `yaml:"order_type" env:"MERCHANT_ORDER_TYPE" env-default:"other"`
		TimeZone   string `yaml:"time_zone" env:"MERCHANT_TIME_ZONE" env-default:"Asia/Ho_Chi_Minh"`
		// ValidityMinutes is the window between vnp_CreateDate and vnp_ExpireDate.
		ValidityMinutes int `yaml:"validity_minutes" env:"MERCHANT_VALIDITY_MINUTES" env-default:"10"`
	} `yaml:"merchant"`
	// Callback holds acknowledgment codes returned to the gateway IPN call.
	Callback struct {
		CodeConfirmed        string `yaml:"code_confirmed" env:"IPN_CODE_CONFIRMED" env-default:"00"`
		CodeOrderNotFound    string `yaml:"code_order_not_found" env:"IPN_CODE_ORDER_NOT_FOUND" env-default:"01"`
		CodeAlreadyConfirmed string `yaml:"code_already_confirmed" env:"IPN_CODE_ALREADY_CONFIRMED" env-default:"02"`
		CodeInvalidAmount    string `yaml:"code_invalid_amount" env:"IPN_CODE_INVALID_AMOUNT" env-default:"04"`
		CodeInvalidSignature string `yaml:"code_invalid_signature" env:"IPN_CODE_INVALID_SIGNATURE" env-default:"97"`
		// CodeExpired acknowledges a callback that arrived after the payment window closed.
		CodeExpired          string `yaml:"code_expired" env:"IPN_CODE_EXPIRED" env-default:"02"`
		CodeUnknownError     string `yaml:"code_unknown_error" env:"IPN_CODE_UNKNOWN_ERROR" env-default:"99"`
	} `yaml:"callback"`
	Storage struct {
		RetryAttempts int `yaml:"retry_attempts" env:"STORAGE_RETRY_ATTEMPTS" env-default:"4"`
		RetryDelayMs  int `yaml:"retry_delay_ms" env:"STORAGE_RETRY_DELAY_MS" env-default:"100"`
	} `yaml:"storage"`
	ExpiryJob struct {
		Enabled         bool `yaml:"enabled" env:"EXPIRY_JOB_ENABLED" env-default:"true"`
		IntervalSeconds int  `yaml:"interval_seconds" env:"EXPIRY_JOB_INTERVAL" env-default:"60"`
		BatchSize       int  `yaml:"batch_size" env:"EXPIRY_JOB_BATCH" env-default:"100"`
	} `yaml:"expiry_job"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// The loaded configuration is validated; a deployment without merchant
// credentials fails here instead of on the first checkout.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance, err = Load(path)
	})
	return instance, err
}

// Load reads and validates configuration without caching it.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the values the signing protocol depends on.
func (c *Config) Validate() error {
	if c.Merchant.Secret == "" {
		return fmt.Errorf("%w: merchant secret is not set", ErrConfiguration)
	}
	if c.Merchant.Code == "" {
		return fmt.Errorf("%w: merchant code is not set", ErrConfiguration)
	}
	if c.Merchant.RequestUrl == "" {
		return fmt.Errorf("%w: gateway url is not set", ErrConfiguration)
	}
	if c.Merchant.ReturnUrl == "" {
		return fmt.Errorf("%w: return url is not set", ErrConfiguration)
	}
	if c.Merchant.ValidityMinutes <= 0 {
		return fmt.Errorf("%w: validity window must be positive", ErrConfiguration)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: time zone %q: %v", ErrConfiguration, c.Merchant.TimeZone, err)
	}
	return nil
}

// Location is the gateway-local time zone used for vnp_CreateDate and vnp_ExpireDate.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Merchant.TimeZone)
}

// Validity is the payment validity window.
func (c *Config) Validity() time.Duration {
	return time.Duration(c.Merchant.ValidityMinutes) * time.Minute
}
