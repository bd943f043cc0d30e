package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSucceeded(t *testing.T) {
	now := time.Unix(1_720_915_200, 0)
	r := New(WithClock(func() time.Time { return now }))

	r.RunSucceeded(15, 2, map[string]int{"core_stats": 45, "match_info": 3})
	r.RunSucceeded(5, 0, map[string]int{"core_stats": 50, "match_info": 4})
	r.RunFailed(ResultDuplicate)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(ResultDuplicate)))
	assert.Equal(t, 20.0, testutil.ToFloat64(r.coreRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.nullValues))
	assert.Equal(t, 50.0, testutil.ToFloat64(r.datasetRows.WithLabelValues("core_stats")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.datasetRows.WithLabelValues("match_info")))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(r.lastSuccess))
}

func TestWriteTextfile(t *testing.T) {
	r := New(WithNamespace("test"))
	r.RunSucceeded(3, 1, map[string]int{"core_stats": 3})
	r.ObserveStage("load", 2*time.Millisecond)

	path := filepath.Join(t.TempDir(), "matchstats.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `test_ingest_runs_total{result="success"} 1`)
	assert.Contains(t, out, "test_core_rows_appended_total 3")
	assert.Contains(t, out, `test_dataset_rows{dataset="core_stats"} 3`)
	assert.Contains(t, out, `test_stage_duration_seconds_count{stage="load"} 1`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := New()
	assert.Error(t, r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "m.prom")))
}
