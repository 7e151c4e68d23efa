package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"SERVER_PORT", "PORT", "STORE_DRIVER", "MONGODB_URI", "MONGO_URI", "MONGODB_DATABASE",
	"DATABASE_URL", "RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "MAILJET_API_KEY",
	"MAILJET_SECRET_KEY", "MAIL_FROM_ADDRESS", "MAIL_FROM_NAME", "ORG_INBOX",
	"MAIL_TIMEOUT_SECONDS", "RECEIPT_TEMPLATE_PATH", "RECEIPT_OUTPUT_DIR",
	"RABBITMQ_URL", "EVENTS_EXCHANGE", "CORS_ALLOWED_ORIGINS",
}

func cleanEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range managedKeys {
		unsetEnvWithCleanup(t, key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "mindron", cfg.MongoDatabase)
	assert.Equal(t, "Mindron Foundation", cfg.MailFromName)
	assert.Equal(t, "templates/80g.pdf", cfg.ReceiptTemplate)
	assert.Equal(t, "certificates/generated", cfg.ReceiptOutputDir)
	assert.Equal(t, "foundation_events", cfg.EventsExchange)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.AllowedOrigins())
	assert.Equal(t, 30*time.Second, cfg.MailTimeout())
}

func TestLoadConfig_PortOverridesServerPort(t *testing.T) {
	cleanEnv(t)
	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
}

func TestLoadConfig_OrgInboxFallsBackToSender(t *testing.T) {
	cleanEnv(t)
	setEnvWithCleanup(t, "MAIL_FROM_ADDRESS", "hello@mindron.org")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "hello@mindron.org", cfg.OrgInbox)
}

func TestLoadConfig_ReadsDotEnvFile(t *testing.T) {
	cleanEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_DRIVER=Memory\nRAZORPAY_KEY_ID=rzp_test_1\n"), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "rzp_test_1", cfg.RazorpayKeyID)
}

func TestValidate_ListsEveryMissingSecret(t *testing.T) {
	err := Config{StoreDriver: StoreMongo}.Validate()
	require.ErrorIs(t, err, ErrMissingConfig)
	for _, key := range []string{"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "MAILJET_API_KEY", "MAILJET_SECRET_KEY", "MAIL_FROM_ADDRESS", "MONGODB_URI"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate_DriverSpecificKeys(t *testing.T) {
	base := Config{
		RazorpayKeyID:     "rzp_test_1",
		RazorpayKeySecret: "secret",
		MailjetAPIKey:     "mj",
		MailjetSecretKey:  "mj-secret",
		MailFromAddress:   "hello@mindron.org",
	}

	memory := base
	memory.StoreDriver = StoreMemory
	assert.NoError(t, memory.Validate())

	pg := base
	pg.StoreDriver = StorePostgres
	err := pg.Validate()
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	unknown := base
	unknown.StoreDriver = "sqlite"
	assert.Error(t, unknown.Validate())
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
