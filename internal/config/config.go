/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables and an optional
 * .env file.
 *
 * Secrets have no defaults. Validate lists every missing required key so a
 * misconfigured deployment fails at startup instead of on the first donation.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported STORE_DRIVER values.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// ErrMissingConfig is returned by Validate when required keys are unset.
var ErrMissingConfig = errors.New("missing required configuration")

// Config holds all the configuration variables for the backend.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	StoreDriver        string `mapstructure:"STORE_DRIVER"`
	MongoURI           string `mapstructure:"MONGODB_URI"`
	MongoDatabase      string `mapstructure:"MONGODB_DATABASE"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RazorpayKeyID      string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret  string `mapstructure:"RAZORPAY_KEY_SECRET"`
	MailjetAPIKey      string `mapstructure:"MAILJET_API_KEY"`
	MailjetSecretKey   string `mapstructure:"MAILJET_SECRET_KEY"`
	MailFromAddress    string `mapstructure:"MAIL_FROM_ADDRESS"`
	MailFromName       string `mapstructure:"MAIL_FROM_NAME"`
	OrgInbox           string `mapstructure:"ORG_INBOX"`
	MailTimeoutSeconds int    `mapstructure:"MAIL_TIMEOUT_SECONDS"`
	ReceiptTemplate    string `mapstructure:"RECEIPT_TEMPLATE_PATH"`
	ReceiptOutputDir   string `mapstructure:"RECEIPT_OUTPUT_DIR"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
	EventsExchange     string `mapstructure:"EVENTS_EXCHANGE"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables and from a .env
// file in path, if one exists.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("STORE_DRIVER", StoreMongo)
	viper.SetDefault("MONGODB_DATABASE", "mindron")
	viper.SetDefault("MAIL_FROM_NAME", "Mindron Foundation")
	viper.SetDefault("MAIL_TIMEOUT_SECONDS", 30)
	viper.SetDefault("RECEIPT_TEMPLATE_PATH", "templates/80g.pdf")
	viper.SetDefault("RECEIPT_OUTPUT_DIR", "certificates/generated")
	viper.SetDefault("EVENTS_EXCHANGE", "foundation_events")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "https://*,http://*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("STORE_DRIVER")
	_ = viper.BindEnv("MONGODB_URI", "MONGODB_URI", "MONGO_URI")
	_ = viper.BindEnv("MONGODB_DATABASE")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RAZORPAY_KEY_ID")
	_ = viper.BindEnv("RAZORPAY_KEY_SECRET")
	_ = viper.BindEnv("MAILJET_API_KEY")
	_ = viper.BindEnv("MAILJET_SECRET_KEY")
	_ = viper.BindEnv("MAIL_FROM_ADDRESS")
	_ = viper.BindEnv("MAIL_FROM_NAME")
	_ = viper.BindEnv("ORG_INBOX")
	_ = viper.BindEnv("MAIL_TIMEOUT_SECONDS")
	_ = viper.BindEnv("RECEIPT_TEMPLATE_PATH")
	_ = viper.BindEnv("RECEIPT_OUTPUT_DIR")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENTS_EXCHANGE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// The .env file is optional.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))
	config.MailFromAddress = strings.TrimSpace(config.MailFromAddress)
	config.OrgInbox = strings.TrimSpace(config.OrgInbox)
	if config.OrgInbox == "" {
		config.OrgInbox = config.MailFromAddress
	}
	if config.MailTimeoutSeconds <= 0 {
		config.MailTimeoutSeconds = 30
	}

	return
}

// Validate reports every required key that is unset, and an unknown store driver.
func (c Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("RAZORPAY_KEY_ID", c.RazorpayKeyID)
	require("RAZORPAY_KEY_SECRET", c.RazorpayKeySecret)
	require("MAILJET_API_KEY", c.MailjetAPIKey)
	require("MAILJET_SECRET_KEY", c.MailjetSecretKey)
	require("MAIL_FROM_ADDRESS", c.MailFromAddress)

	switch c.StoreDriver {
	case StoreMongo:
		require("MONGODB_URI", c.MongoURI)
	case StorePostgres:
		require("DATABASE_URL", c.DatabaseURL)
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s, %s or %s)", c.StoreDriver, StoreMongo, StorePostgres, StoreMemory)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MailTimeout is the upper bound for one email send.
func (c Config) MailTimeout() time.Duration {
	return time.Duration(c.MailTimeoutSeconds) * time.Second
}
