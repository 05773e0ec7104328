// Package pipeline provides the raw input bundle format and the demo dataset.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// Bundle is a complete raw input snapshot, one slice per source table.
// It is the JSON format read by cmd/load and cmd/pipeline --bundle.
type Bundle struct {
	Transactions       []*domain.RawTransaction     `json:"transactions"`
	TokenPrices        []*domain.RawTokenPrice      `json:"token_prices"`
	ProtocolTVL        []*domain.RawProtocolTVL     `json:"protocol_tvl"`
	WalletLabels       []*domain.WalletLabel        `json:"wallet_labels"`
	CrossChainActivity []*domain.CrossChainActivity `json:"cross_chain_activity"`
	WalletEnrichment   []*domain.WalletEnrichment   `json:"wallet_enrichment"`
}

// LoadBundle reads a JSON bundle from path.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return &b, nil
}

// WriteBundle writes b as indented JSON to path.
func WriteBundle(path string, b *Bundle) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// Seed upserts every source table of b into w.
// Returns the number of rows written per source table.
func (b *Bundle) Seed(ctx context.Context, w storage.SourceWriter) (map[string]int, error) {
	counts := make(map[string]int, 6)

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"transactions", func() (int, error) { return w.UpsertTransactions(ctx, b.Transactions) }},
		{"token_prices", func() (int, error) { return w.UpsertTokenPrices(ctx, b.TokenPrices) }},
		{"protocol_tvl", func() (int, error) { return w.UpsertProtocolTVL(ctx, b.ProtocolTVL) }},
		{"wallet_labels", func() (int, error) { return w.UpsertWalletLabels(ctx, b.WalletLabels) }},
		{"cross_chain_activity", func() (int, error) { return w.UpsertCrossChainActivity(ctx, b.CrossChainActivity) }},
		{"wallet_enrichment", func() (int, error) { return w.UpsertWalletEnrichment(ctx, b.WalletEnrichment) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			return counts, fmt.Errorf("seed %s: %w", s.name, err)
		}
		counts[s.name] = n
	}
	return counts, nil
}
