// Package config defines the configuration structure for the SheGymZ web
// service. Configuration is loaded once at process start and is immutable
// thereafter.
//
// Values are resolved with the priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct tag defaults (Lowest)
//
// Any missing required value or invalid format fails startup.
package config

import (
	"time"

	"shegymz/internal/payfast"
	"shegymz/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for credentials so they never reach logs.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"shegymz-web"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	PayFast       PayFastConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// PayFastConfig holds the merchant account and subscription settings sent to
// the payment processor.
type PayFastConfig struct {
	MerchantID  string       `envconfig:"PAYFAST_MERCHANT_ID" validate:"required"`
	MerchantKey string       `envconfig:"PAYFAST_MERCHANT_KEY" validate:"required"`
	Passphrase  SecretString `envconfig:"PAYFAST_PASSPHRASE"`

	// Sandbox selects the sandbox hosted payment page. ProcessURL, when set,
	// overrides both.
	Sandbox    bool   `envconfig:"PAYFAST_SANDBOX" default:"false"`
	ProcessURL string `envconfig:"PAYFAST_PROCESS_URL" validate:"omitempty,url"`

	ReturnURL string `envconfig:"PAYFAST_RETURN_URL" validate:"required,url"`
	CancelURL string `envconfig:"PAYFAST_CANCEL_URL" validate:"required,url"`
	NotifyURL string `envconfig:"PAYFAST_NOTIFY_URL" validate:"required,url"`

	Amount          string `envconfig:"SUBSCRIPTION_AMOUNT" default:"399.00" validate:"required,numeric"`
	ItemName        string `envconfig:"SUBSCRIPTION_ITEM_NAME" default:"SheGymZ Monthly Membership"`
	ItemDescription string `envconfig:"SUBSCRIPTION_ITEM_DESCRIPTION" default:"Private women's wellness club - 24/7 access, personal trainers included"`
}

// MerchantConfig converts the loaded settings into the form consumed by the
// payfast package.
func (c PayFastConfig) MerchantConfig() payfast.MerchantConfig {
	processURL := c.ProcessURL
	if processURL == "" {
		processURL = payfast.LiveProcessURL
		if c.Sandbox {
			processURL = payfast.SandboxProcessURL
		}
	}

	return payfast.MerchantConfig{
		MerchantID:      c.MerchantID,
		MerchantKey:     c.MerchantKey,
		Passphrase:      c.Passphrase.Unmask(),
		ProcessURL:      processURL,
		ReturnURL:       c.ReturnURL,
		CancelURL:       c.CancelURL,
		NotifyURL:       c.NotifyURL,
		Amount:          c.Amount,
		ItemName:        c.ItemName,
		ItemDescription: c.ItemDescription,
	}
}

// SecurityConfig holds browser-facing security settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"SheGymZ"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"af-south-1"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
