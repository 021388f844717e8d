package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "munger", cfg.AppName)
		assert.Equal(t, "ValidationErrors", cfg.ErrorsFieldName)
		assert.Equal(t, "-", cfg.SuffixSeparator)
		assert.True(t, cfg.CSVUseCRLF)
		assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 10000, cfg.OTLPTimeoutMs)
		assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	})

	t.Run("should read trace exporter settings", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-team:data,x-env:prod")
		t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
		assert.Equal(t, "http", cfg.OTLPProtocol)
		assert.Equal(t, map[string]string{"x-team": "data", "x-env": "prod"}, cfg.OTLPHeaders)
		assert.Equal(t, 0.25, cfg.TraceSampleRatio)
	})

	t.Run("should read the environment", func(t *testing.T) {
		t.Setenv("SUFFIX_SEPARATOR", "_")
		t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "_", cfg.SuffixSeparator)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	})

	t.Run("should read an env file and tolerate a missing one", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("ERRORS_FIELD_NAME=Problems\n"), 0o644))
		t.Setenv("ERRORS_FIELD_NAME", "")
		os.Unsetenv("ERRORS_FIELD_NAME")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Problems", cfg.ErrorsFieldName)

		_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.NoError(t, err)
	})
}
