package config

import (
	"github.com/spf13/viper"

	"github.com/hartley-studio/service-billing/pkg/database"
)

// ProcessorConfig holds payment-processor configuration. The integration is
// considered configured only when both base URL and access token are present.
type ProcessorConfig struct {
	Provider    string
	BaseURL     string
	AccessToken string
}

// Configured reports whether the live processor integration can be used.
func (c ProcessorConfig) Configured() bool {
	return c.BaseURL != "" && c.AccessToken != ""
}

// ServiceConfig holds all configuration for the billing service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	JWTSecret      string
	KafkaBrokers   []string
	Processor      ProcessorConfig
	Currency       string
	GiftCardPrefix string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "billing")
	v.SetDefault("DB_NAME", "billing")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("GIFT_CARD_PREFIX", "GC")
	v.SetDefault("PROCESSOR_PROVIDER", "square")

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:    v.GetString("JWT_SECRET"),
		KafkaBrokers: v.GetStringSlice("KAFKA_BROKERS"),
		Processor: ProcessorConfig{
			Provider:    v.GetString("PROCESSOR_PROVIDER"),
			BaseURL:     v.GetString("PROCESSOR_BASE_URL"),
			AccessToken: v.GetString("PROCESSOR_ACCESS_TOKEN"),
		},
		Currency:       v.GetString("CURRENCY"),
		GiftCardPrefix: v.GetString("GIFT_CARD_PREFIX"),
	}, nil
}
