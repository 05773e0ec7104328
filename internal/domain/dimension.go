package domain

import "time"

// WalletDimension is the flat lifetime summary of a wallet.
type WalletDimension struct {
	WalletAddress          string
	CohortID               string
	CohortWeek             time.Time
	FirstProtocol          string
	FirstTxType            string
	AcquisitionSource      string
	LabelType              string
	TotalTxs               int
	TotalVolumeETH         float64
	TotalVolumeUSD         float64
	ProtocolsUsed          int
	ActiveWeeks            int
	FirstTxAt              time.Time
	LastTxAt               time.Time
	VolumePercentile       int // 1 = top volume bucket
	VolumeSegment          string
	IsBot                  bool
	DistinctChainsUsed     int
	TotalBridgingVolumeUSD float64
	NomadScore             *float64
	ChainPersona           string
	HistoricalWinRate      *float64
	RealizedProfitUSD      *float64
	SmartMoneyTier         string
}

// Volume segments.
const (
	SegmentWhale      = "whale"
	SegmentPowerUser  = "power_user"
	SegmentActiveUser = "active_user"
	SegmentRetail     = "retail"
)

// Chain personas derived from distinct chains used.
const (
	PersonaLoyalist  = "loyalist"
	PersonaExplorer  = "explorer"
	PersonaMercenary = "mercenary"
	PersonaUnknown   = "unknown"
)

// Smart money tiers derived from historical win rate.
const (
	TierSmartMoney = "smart_money"
	TierAverage    = "average"
	TierRetail     = "retail"
	TierUnknown    = "unknown"
)

// ProtocolDimension is the flat lifetime summary of a protocol.
type ProtocolDimension struct {
	ProtocolName             string
	Chain                    string
	TotalTxs                 int
	UniqueWallets            int
	TotalVolumeETH           float64
	TotalVolumeUSD           float64
	TotalEstimatedRevenueUSD float64
	AvgDailyRevenueUSD       float64
	LatestTVLUSD             *float64
	FirstActivityDate        time.Time
	LastActivityDate         time.Time
	ActiveDays               int
	BotWallets               int
	BotWalletShare           *float64
	RevenuePerWalletUSD      *float64
}
