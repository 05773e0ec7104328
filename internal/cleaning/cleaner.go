// Package cleaning normalizes raw source rows into typed, validated records.
// It performs no cross-record computation beyond deduplication.
package cleaning

import (
	"time"

	"defi-cohort-lab/internal/domain"
)

// Inputs is the raw snapshot read from the source tables.
type Inputs struct {
	Transactions []*domain.RawTransaction
	Prices       []*domain.RawTokenPrice
	TVL          []*domain.RawProtocolTVL
	Labels       []*domain.WalletLabel
	CrossChain   []*domain.CrossChainActivity
	Enrichment   []*domain.WalletEnrichment
}

// RowCounts returns the number of raw rows per input.
func (in *Inputs) RowCounts() map[string]int {
	return map[string]int{
		"transactions":         len(in.Transactions),
		"token_prices":         len(in.Prices),
		"protocol_tvl":         len(in.TVL),
		"wallet_labels":        len(in.Labels),
		"cross_chain_activity": len(in.CrossChain),
		"wallet_enrichment":    len(in.Enrichment),
	}
}

// Options controls cleaning.
type Options struct {
	StartDate     time.Time         // transactions before this day are dropped; zero disables
	ProtocolNames map[string]string // protocol slug -> display name
}

// Dataset is the cleaned snapshot consumed by every downstream stage.
type Dataset struct {
	Transactions []*domain.Transaction // sorted by (block_timestamp, tx_hash)
	Prices       []*domain.TokenPrice
	TVL          []*domain.ProtocolTVL
	Labels       []*domain.WalletLabel
	CrossChain   []*domain.CrossChainActivity
	Enrichment   []*domain.WalletEnrichment
}

// Report summarizes the rows dropped by cleaning.
type Report struct {
	Transactions  TransactionReport
	DroppedPrices int
	DroppedTVL    int
}

// Clean runs every cleaner over the inputs.
func Clean(in *Inputs, opts Options) (*Dataset, *Report, error) {
	report := &Report{}

	txs, txReport, err := CleanTransactions(in.Transactions, opts.StartDate)
	report.Transactions = txReport
	if err != nil {
		return nil, report, err
	}

	prices, droppedPrices, err := CleanPrices(in.Prices)
	report.DroppedPrices = droppedPrices
	if err != nil {
		return nil, report, err
	}

	tvl, droppedTVL, err := CleanTVL(in.TVL, opts.ProtocolNames)
	report.DroppedTVL = droppedTVL
	if err != nil {
		return nil, report, err
	}

	labels, err := CleanLabels(in.Labels)
	if err != nil {
		return nil, report, err
	}

	crossChain, err := CleanCrossChain(in.CrossChain)
	if err != nil {
		return nil, report, err
	}

	enrichment, err := CleanEnrichment(in.Enrichment)
	if err != nil {
		return nil, report, err
	}

	return &Dataset{
		Transactions: txs,
		Prices:       prices,
		TVL:          tvl,
		Labels:       labels,
		CrossChain:   crossChain,
		Enrichment:   enrichment,
	}, report, nil
}
