package domain

import "time"

// Transaction is a cleaned, successful protocol interaction.
// Immutable once produced by the cleaning layer.
type Transaction struct {
	TxHash          string
	BlockNumber     int64
	BlockTimestamp  time.Time // UTC
	Day             time.Time // UTC midnight of BlockTimestamp
	Week            time.Time // ISO week floor (Monday 00:00 UTC)
	FromAddress     string    // lowercased
	ToAddress       string    // lowercased
	ContractAddress *string   // lowercased, optional
	ValueWei        string
	ValueETH        float64
	GasUsed         int64
	GasPriceWei     string
	GasCostETH      float64
	MethodID        string
	FunctionName    string
	TxType          string // one of TxType* constants
	ProtocolName    string
	Chain           string
}

// Transaction classification constants.
const (
	TxTypeSwap     = "swap"
	TxTypeSupply   = "supply"
	TxTypeBorrow   = "borrow"
	TxTypeRepay    = "repay"
	TxTypeWithdraw = "withdraw"
	TxTypeOther    = "other"
)

// TokenPrice is a cleaned daily price with a strictly positive value.
type TokenPrice struct {
	TokenID      string
	TokenSymbol  string
	Date         time.Time // UTC midnight
	PriceUSD     float64
	MarketCapUSD *float64
	Volume24hUSD *float64
}

// ProtocolTVL is a cleaned daily TVL observation with a strictly positive value.
type ProtocolTVL struct {
	ProtocolSlug string
	ProtocolName string
	Chain        string
	Date         time.Time // UTC midnight
	TVLUSD       float64
}
