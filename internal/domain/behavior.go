package domain

// WalletBehaviorScore holds the dispersion features and bot flag of a wallet.
type WalletBehaviorScore struct {
	WalletAddress     string
	TotalTxs          int
	TimeStddevSeconds float64 // sample stddev of inter-tx gaps, 0 when undefined
	ValueStddevETH    float64 // sample stddev of tx values, 0 when undefined
	IsBot             bool
	BotReason         string
}

// Bot classification reasons.
const (
	BotReasonHighFrequency   = "high_frequency"
	BotReasonIdenticalValues = "identical_values"
	BotReasonNone            = "none"
)
