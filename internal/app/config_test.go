package app

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexacrm/ledgerd/internal/platform/storage"
)

var configKeys = []string{
	"APP_ADDR", "TENANT_HEADER", "PREVIEW_CACHE_TTL", "EXPORT_RATE_LIMIT",
	"FEC_DEFAULT_SIREN", "STORAGE_DRIVER", "STORAGE_DIR", "APP_ENV",
	"S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_ENDPOINT", "S3_USE_PATH_STYLE",
}

// clearConfigEnv unsets the variables for the duration of the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "X-Organization-ID", cfg.TenantHeader)
	assert.Equal(t, 5*time.Minute, cfg.PreviewCacheTTL)
	assert.Equal(t, 30, cfg.ExportRateLimit)
	assert.Equal(t, storage.DriverFS, cfg.Storage().Driver)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad siren":         {"FEC_DEFAULT_SIREN": "12345"},
		"negative limit":    {"EXPORT_RATE_LIMIT": "-1"},
		"unknown driver":    {"STORAGE_DRIVER": "ftp"},
		"s3 without bucket": {"STORAGE_DRIVER": "s3", "S3_ACCESS_KEY": "k", "S3_SECRET_KEY": "s"},
		"s3 without keys":   {"STORAGE_DRIVER": "s3", "S3_BUCKET": "archive"},
		"malformed ttl":     {"PREVIEW_CACHE_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigS3(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "archive")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("FEC_DEFAULT_SIREN", "552100554")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	sc := cfg.Storage()
	assert.Equal(t, "archive", sc.Bucket)
	assert.Equal(t, "minio:9000", sc.Endpoint)
	assert.True(t, sc.UsePathStyle)
	assert.Equal(t, "552100554", cfg.FECDefaultSIREN)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, &Config{LogFormat: "json"}).Info("ready")
	assert.Contains(t, buf.String(), `"msg":"ready"`)
	assert.Contains(t, buf.String(), `"service":"ledgerd"`)

	buf.Reset()
	logger := NewLoggerTo(&buf, &Config{LogFormat: "pretty", LogLevel: "debug"})
	logger.Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")

	buf.Reset()
	NewLoggerTo(&buf, &Config{AppEnv: "production", LogLevel: "debug"}).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
