package domain

import "time"

// PipelineRun is the record of one full-refresh pipeline execution.
// Corresponds to analytics.pipeline_runs.
type PipelineRun struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	InputRows   map[string]int `json:"input_rows"`
	OutputRows  map[string]int `json:"output_rows"`
	DataVersion string         `json:"data_version,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Output table names.
const (
	TableWalletCohorts           = "wallet_cohorts"
	TableActivityPeriods         = "activity_periods"
	TableWalletBehavior          = "wallet_behavior_scores"
	TableDailyProtocolRevenue    = "daily_protocol_revenue"
	TableCohortRetention         = "cohort_retention"
	TableDailyRevenueAttribution = "daily_revenue_attribution"
	TableWalletDimension         = "dim_wallets"
	TableProtocolDimension       = "dim_protocols"
)

// Snapshot is the complete, immutable output of one pipeline run.
// Sinks publish a snapshot as a unit.
type Snapshot struct {
	RunID       string
	Cohorts     []*WalletCohortAssignment
	Activity    []*ActivityPeriod
	Behavior    []*WalletBehaviorScore
	Revenue     []*DailyProtocolRevenue
	Retention   []*CohortRetentionRecord
	Attribution []*DailyRevenueAttribution
	Wallets     []*WalletDimension
	Protocols   []*ProtocolDimension
}

// RowCounts returns the number of rows per output table.
func (s *Snapshot) RowCounts() map[string]int {
	return map[string]int{
		TableWalletCohorts:           len(s.Cohorts),
		TableActivityPeriods:         len(s.Activity),
		TableWalletBehavior:          len(s.Behavior),
		TableDailyProtocolRevenue:    len(s.Revenue),
		TableCohortRetention:         len(s.Retention),
		TableDailyRevenueAttribution: len(s.Attribution),
		TableWalletDimension:         len(s.Wallets),
		TableProtocolDimension:       len(s.Protocols),
	}
}
