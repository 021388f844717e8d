package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ramsey-B/munger/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJob = `
source: input.csv
stages:
  validate:
    schema:
      Field: {type: string}
      OtherField: {type: string, maxlength: 1}
writers:
  - outcome: completed
    suffix: valid
  - outcome: failed_validation
    suffix: invalid
    include_errors: true
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.csv"), []byte("Field,OtherField\n1,a\n2,bb\n"), 0o644))
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte(testJob), 0o644))
	envFile := filepath.Join(dir, "missing.env")

	t.Run("should check a job", func(t *testing.T) {
		out, err := execute(t, "check", jobPath)
		require.NoError(t, err)
		assert.Contains(t, out, "ok")
	})

	t.Run("should run a job and print a summary", func(t *testing.T) {
		t.Setenv("CSV_USE_CRLF", "false")
		out, err := execute(t, "--env-file", envFile, "run", jobPath)
		require.NoError(t, err)
		assert.Contains(t, out, "2 rows")

		valid, err := os.ReadFile(filepath.Join(dir, "input-valid.csv"))
		require.NoError(t, err)
		assert.Equal(t, "Field,OtherField\n1,a\n", string(valid))

		invalid, err := os.ReadFile(filepath.Join(dir, "input-invalid.csv"))
		require.NoError(t, err)
		assert.Contains(t, string(invalid), "2,bb,")
	})

	t.Run("should fail on a missing job file", func(t *testing.T) {
		_, err := execute(t, "check", filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestSubsystemConfig(t *testing.T) {
	t.Setenv("APP_NAME", "munger-nightly")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT_MS", "2500")
	t.Setenv("CSV_USE_CRLF", "false")
	cfg, err := config.Load()
	require.NoError(t, err)

	t.Run("should label traces with the app and job", func(t *testing.T) {
		tc := tracingConfig(cfg, "jobs/fish.yaml")
		assert.Equal(t, "munger-nightly", tc.ServiceName)
		assert.Equal(t, "jobs/fish.yaml", tc.Job)
		assert.Equal(t, "collector:4317", tc.Endpoint)
		assert.Equal(t, "grpc", tc.Protocol)
		assert.Equal(t, 2500*time.Millisecond, tc.Timeout)
		assert.Equal(t, 1.0, tc.SampleRatio)
	})

	t.Run("should map the line terminator", func(t *testing.T) {
		assert.True(t, pipelineConfig(cfg).UseLF)
	})
}
