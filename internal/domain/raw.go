package domain

import "time"

// RawTransaction is a protocol contract call as delivered by the extractor.
// Corresponds to raw.etherscan_transactions in PostgreSQL.
type RawTransaction struct {
	TxHash          string    `json:"tx_hash"`
	BlockNumber     int64     `json:"block_number"`
	BlockTimestamp  time.Time `json:"block_timestamp"`
	FromAddress     string    `json:"from_address"`
	ToAddress       string    `json:"to_address"`
	ContractAddress *string   `json:"contract_address,omitempty"`
	ValueWei        string    `json:"value_wei"` // decimal string, may exceed int64
	GasUsed         int64     `json:"gas_used"`
	GasPriceWei     string    `json:"gas_price_wei"` // decimal string
	MethodID        string    `json:"method_id"`     // 4-byte selector, 0x-prefixed
	FunctionName    string    `json:"function_name"`
	IsError         bool      `json:"is_error"`
	ProtocolName    string    `json:"protocol_name"`
	Chain           string    `json:"chain"`
}

// RawTokenPrice is a daily token price row. PriceUSD is nullable upstream.
// Corresponds to raw.coingecko_prices.
type RawTokenPrice struct {
	TokenID      string    `json:"token_id"`
	TokenSymbol  string    `json:"token_symbol"`
	Date         time.Time `json:"date"`
	PriceUSD     *float64  `json:"price_usd"`
	MarketCapUSD *float64  `json:"market_cap_usd,omitempty"`
	Volume24hUSD *float64  `json:"volume_24h_usd,omitempty"`
}

// RawProtocolTVL is a daily TVL row. TVLUSD is nullable upstream.
// Corresponds to raw.defillama_tvl.
type RawProtocolTVL struct {
	ProtocolSlug string    `json:"protocol_slug"`
	ProtocolName string    `json:"protocol_name"`
	Chain        string    `json:"chain"`
	Date         time.Time `json:"date"`
	TVLUSD       *float64  `json:"tvl_usd"`
}

// WalletLabel is an external wallet label (acquisition source).
// Corresponds to raw.dune_wallet_labels.
type WalletLabel struct {
	WalletAddress     string     `json:"wallet_address"`
	Label             string     `json:"label"`
	LabelType         string     `json:"label_type"`
	Project           string     `json:"project"`
	FirstActivityDate *time.Time `json:"first_activity_date,omitempty"`
	TotalTxs          int64      `json:"total_txs"`
}

// CrossChainActivity is the optional bridging footprint of a wallet.
// Corresponds to raw.cross_chain_activity.
type CrossChainActivity struct {
	WalletAddress          string     `json:"wallet_address"`
	DistinctChainsUsed     int        `json:"distinct_chains_used"`
	TotalBridgingVolumeUSD float64    `json:"total_bridging_volume_usd"`
	LastBridgeDate         *time.Time `json:"last_bridge_date,omitempty"`
}

// WalletEnrichment holds optional portfolio performance stats of a wallet.
// Corresponds to raw.wallet_enrichment.
type WalletEnrichment struct {
	WalletAddress     string   `json:"wallet_address"`
	HistoricalWinRate *float64 `json:"historical_win_rate"`
	RealizedProfitUSD *float64 `json:"realized_profit_usd"`
}
