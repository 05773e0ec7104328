package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordPipelineRun(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordPipelineRun("success", 2.5, 1700000000)
	m.RecordPipelineRun("failed", 1, 1700000100)

	if got := testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastSuccessfulPipeline); got != 1700000000 {
		t.Errorf("last success = %v, want 1700000000", got)
	}
}

func TestMetrics_RowCountsAndPublish(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.SetRowCounts(map[string]int{"transactions": 10}, map[string]int{"wallet_cohorts": 3})
	if got := testutil.ToFloat64(m.InputRows.WithLabelValues("transactions")); got != 10 {
		t.Errorf("input rows = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.OutputRows.WithLabelValues("wallet_cohorts")); got != 3 {
		t.Errorf("output rows = %v, want 3", got)
	}

	m.RecordPublish("postgres", 0.1, nil)
	m.RecordPublish("postgres", 0.1, errors.New("boom"))
	if got := testutil.ToFloat64(m.PublishErrors.WithLabelValues("postgres")); got != 1 {
		t.Errorf("publish errors = %v, want 1", got)
	}

	m.RecordRejected("invalid_address", 0)
	m.RecordRejected("invalid_address", 4)
	if got := testutil.ToFloat64(m.RejectedRows.WithLabelValues("invalid_address")); got != 4 {
		t.Errorf("rejected = %v, want 4", got)
	}
}
