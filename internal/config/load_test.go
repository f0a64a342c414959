package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/desi")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PUBLIC_BASE_URL", "https://desi.example.test/")
	t.Setenv("WHATSAPP_PROVIDER", "Cloud")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("ES_INDEX", "")

	cfg := Load()
	assert.Equal(t, "https://desi.example.test", cfg.PublicBaseURL)
	assert.Equal(t, "cloud", cfg.WhatsApp.Provider)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "vendors", cfg.ESIndex)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.Equal(t, "Europe/London", cfg.Timezone)
}
