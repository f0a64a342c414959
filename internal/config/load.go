package config

import (
	"strings"
	"time"

	"github.com/Skotchmaster/desi_occasions/pkg/config"
)

type WhatsAppConfig struct {
	Provider string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	CloudToken         string
	CloudPhoneNumberID string
}

type ServiceConfig struct {
	config.Config

	PublicBaseURL string
	Timezone      string

	StripeSecretKey     string
	StripeWebhookSecret string

	WhatsApp WhatsAppConfig

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	NotifyWorkers   int
	NotifyQueueSize int
	NotifyTimeout   time.Duration
}

// Load resolves the service configuration. Payment and messaging credentials
// are optional at start; the features that need them fail at use.
func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   string(cfg.JWTAccessSecret),
	})

	return ServiceConfig{
		Config: cfg,

		PublicBaseURL: strings.TrimRight(config.EnvDefault("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		Timezone:      config.EnvDefault("TIMEZONE", "Europe/London"),

		StripeSecretKey:     config.EnvDefault("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: config.EnvDefault("STRIPE_WEBHOOK_SECRET", ""),

		WhatsApp: WhatsAppConfig{
			Provider:           strings.ToLower(config.EnvDefault("WHATSAPP_PROVIDER", "twilio")),
			TwilioAccountSID:   config.EnvDefault("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:    config.EnvDefault("TWILIO_AUTH_TOKEN", ""),
			TwilioFrom:         config.EnvDefault("TWILIO_WHATSAPP_FROM", ""),
			CloudToken:         config.EnvDefault("WHATSAPP_CLOUD_TOKEN", ""),
			CloudPhoneNumberID: config.EnvDefault("WHATSAPP_CLOUD_PHONE_NUMBER_ID", ""),
		},

		ESURL:      config.EnvDefault("ES_URL", ""),
		ESUser:     config.EnvDefault("ES_USER", ""),
		ESPassword: config.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    config.EnvDefault("ES_INDEX", "vendors"),

		NotifyWorkers:   config.EnvIntDefault("NOTIFY_WORKERS", 4),
		NotifyQueueSize: config.EnvIntDefault("NOTIFY_QUEUE_SIZE", 256),
		NotifyTimeout:   config.EnvDurationDefault("NOTIFY_TIMEOUT", 10*time.Second),
	}
}
