package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	before := testutil.ToFloat64(DocumentsTotal.WithLabelValues("completed"))
	RecordDocument("completed")
	RecordDocument("completed")
	assert.Equal(t, before+2, testutil.ToFloat64(DocumentsTotal.WithLabelValues("completed")))

	before = testutil.ToFloat64(WritesTotal.WithLabelValues("failed_validation", "invalid.csv"))
	RecordWrite("failed_validation", "invalid.csv")
	assert.Equal(t, before+1, testutil.ToFloat64(WritesTotal.WithLabelValues("failed_validation", "invalid.csv")))

	before = testutil.ToFloat64(UnclaimedTotal.WithLabelValues("failed_filter"))
	RecordUnclaimed("failed_filter")
	assert.Equal(t, before+1, testutil.ToFloat64(UnclaimedTotal.WithLabelValues("failed_filter")))

	before = testutil.ToFloat64(StageRejectionsTotal.WithLabelValues("filter"))
	RecordRejection("filter")
	assert.Equal(t, before+1, testutil.ToFloat64(StageRejectionsTotal.WithLabelValues("filter")))

	before = testutil.ToFloat64(EventsPublished.WithLabelValues("munger.outcomes", "success"))
	RecordKafkaPublish("munger.outcomes", "success", 0.002)
	assert.Equal(t, before+1, testutil.ToFloat64(EventsPublished.WithLabelValues("munger.outcomes", "success")))
}

func TestWriteTextfile(t *testing.T) {
	RecordRun(1.5)
	path := filepath.Join(t.TempDir(), "munger.prom")
	require.NoError(t, WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "munger_pipeline_run_duration_seconds")

	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "munger.prom")))
}
