package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_TYPE", "JWT_TTL", "UPLOAD_MAX_BYTES", "CORS_ALLOWED_ORIGINS", "ALLOW_LEGACY_IDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3003", cfg.Port)
	assert.Equal(t, StorageMongo, cfg.StorageType)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(15<<20), cfg.UploadMaxBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.AllowLegacyIDs)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "Postgres")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ALLOW_LEGACY_IDS", "false")

	cfg := Load()

	assert.Equal(t, StoragePostgres, cfg.StorageType)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AllowLegacyIDs)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("UPLOAD_MAX_BYTES", "big")
	t.Setenv("ALLOW_LEGACY_IDS", "maybe")

	cfg := Load()

	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(15<<20), cfg.UploadMaxBytes)
	assert.True(t, cfg.AllowLegacyIDs)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Load()
	cfg.StorageType = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.UploadMaxBytes = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "blog", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=blog sslmode=disable", cfg.DatabaseURL())
}
