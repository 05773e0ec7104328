package domain

// CohortRetentionRecord is the retention of one cohort segment at one week offset.
type CohortRetentionRecord struct {
	CohortID             string
	WeeksSinceFirst      int
	AcquisitionSource    string
	CohortSize           int
	ActiveWallets        int
	TotalWalletsInPeriod int
	RetentionRate        *float64 // nil when CohortSize == 0
	RetentionPeriod      string
}

// Retention period labels.
const (
	RetentionPeriodActivation = "Week 0 (Activation)"
	RetentionPeriodMonth1     = "Month 1"
	RetentionPeriodQuarter1   = "Quarter 1"
	RetentionPeriodLongTerm   = "Long Term"
)

// RetentionPeriodFor labels a week offset.
func RetentionPeriodFor(weeksSinceFirst int) string {
	switch {
	case weeksSinceFirst == 0:
		return RetentionPeriodActivation
	case weeksSinceFirst <= 4:
		return RetentionPeriodMonth1
	case weeksSinceFirst <= 12:
		return RetentionPeriodQuarter1
	default:
		return RetentionPeriodLongTerm
	}
}
