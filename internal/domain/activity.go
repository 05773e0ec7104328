package domain

import "time"

// ActivityPeriod is one cell of the wallet × week spine.
// Rows exist for every week from the wallet's cohort week to the latest
// week in the dataset, including weeks without activity.
type ActivityPeriod struct {
	WalletAddress     string
	WeekStart         time.Time
	CohortWeek        time.Time
	CohortID          string
	AcquisitionSource string
	WeeksSinceFirst   int // >= 0
	IsActive          int // 0 or 1
	WeeklyTxCount     int
	ProtocolsUsed     int
	WeekVolumeETH     float64
}
