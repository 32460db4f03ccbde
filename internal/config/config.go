// Package config loads service configuration from environment variables,
// with a local .env file honored in development.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the paysplit server.
type Config struct {
	Port   int    `mapstructure:"PORT"`
	DBPath string `mapstructure:"DB_PATH"`

	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTTokenDuration time.Duration `mapstructure:"JWT_TOKEN_DURATION"`

	// AMQPURL enables the RabbitMQ notification producer when set;
	// empty falls back to log-only notifications.
	AMQPURL string `mapstructure:"AMQP_URL"`

	// AddressBookURL enables display-name resolution when set.
	AddressBookURL string `mapstructure:"ADDRESS_BOOK_URL"`

	// LedgerURL is the settlement-execution service the schedule runner
	// submits due payments to.
	LedgerURL string `mapstructure:"LEDGER_URL"`

	// Schedule poll cadence, cron syntax.
	SchedulePollCron string `mapstructure:"SCHEDULE_POLL_CRON"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_PATH", "./data/paysplit.db")
	viper.SetDefault("JWT_TOKEN_DURATION", "24h")
	viper.SetDefault("SCHEDULE_POLL_CRON", "*/1 * * * *") // every minute
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DB_PATH")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_TOKEN_DURATION")
	_ = viper.BindEnv("AMQP_URL")
	_ = viper.BindEnv("ADDRESS_BOOK_URL")
	_ = viper.BindEnv("LEDGER_URL")
	_ = viper.BindEnv("SCHEDULE_POLL_CRON")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}
