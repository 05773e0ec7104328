package domain

import "time"

// DailyProtocolRevenue is the heuristic revenue estimate for one protocol day.
type DailyProtocolRevenue struct {
	Date                time.Time
	ProtocolName        string
	TxCount             int
	UniqueWallets       int
	TotalVolumeETH      float64
	TotalVolumeUSD      float64
	EstimatedRevenueUSD float64
	TVLUSD              *float64 // latest TVL on or before Date
	ETHPriceUSD         *float64
	RevenueRule         string // registry rule that produced the estimate
}

// DailyRevenueAttribution apportions one protocol day of revenue to an acquisition source.
type DailyRevenueAttribution struct {
	Date                  time.Time
	ProtocolName          string
	AcquisitionSource     string
	ActiveWallets         int
	ProtocolUniqueWallets int
	ProtocolRevenueUSD    float64
	AttributedRevenueUSD  *float64 // nil when ProtocolUniqueWallets == 0
	RevenuePerWalletUSD   *float64 // nil when ProtocolUniqueWallets == 0
}
