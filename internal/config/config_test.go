package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, int64(10<<20), cfg.Uploads.KYCMaxBytes)
	assert.Equal(t, int64(5<<20), cfg.Uploads.ClaimMaxBytes)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLAIM_MAX_UPLOAD_BYTES", "not-a-number")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, int64(5<<20), cfg.Uploads.ClaimMaxBytes)
}
