package cleaning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"defi-cohort-lab/internal/domain"
)

// CleanLabels lowercases addresses, defaults empty label fields to "unknown"
// and keeps one label per wallet (smallest label, then label_type).
// Output is sorted by wallet address.
func CleanLabels(raw []*domain.WalletLabel) ([]*domain.WalletLabel, error) {
	rows := make([]*domain.WalletLabel, 0, len(raw))
	for i, r := range raw {
		if r == nil || strings.TrimSpace(r.WalletAddress) == "" {
			return nil, fmt.Errorf("wallet_labels row %d: empty wallet_address: %w", i, ErrSchemaViolation)
		}
		c := *r
		c.WalletAddress = strings.ToLower(strings.TrimSpace(r.WalletAddress))
		c.Label = strings.TrimSpace(r.Label)
		if c.Label == "" {
			c.Label = domain.UnknownSource
		}
		c.LabelType = strings.TrimSpace(r.LabelType)
		if c.LabelType == "" {
			c.LabelType = domain.UnknownSource
		}
		rows = append(rows, &c)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.WalletAddress != b.WalletAddress {
			return a.WalletAddress < b.WalletAddress
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.LabelType < b.LabelType
	})

	out := rows[:0]
	for _, r := range rows {
		if len(out) > 0 && out[len(out)-1].WalletAddress == r.WalletAddress {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CleanCrossChain lowercases addresses, clamps negative figures to zero and
// keeps one row per wallet (highest chain count). Sorted by wallet address.
func CleanCrossChain(raw []*domain.CrossChainActivity) ([]*domain.CrossChainActivity, error) {
	rows := make([]*domain.CrossChainActivity, 0, len(raw))
	for i, r := range raw {
		if r == nil || strings.TrimSpace(r.WalletAddress) == "" {
			return nil, fmt.Errorf("cross_chain_activity row %d: empty wallet_address: %w", i, ErrSchemaViolation)
		}
		c := *r
		c.WalletAddress = strings.ToLower(strings.TrimSpace(r.WalletAddress))
		if c.DistinctChainsUsed < 0 {
			c.DistinctChainsUsed = 0
		}
		if c.TotalBridgingVolumeUSD < 0 || math.IsNaN(c.TotalBridgingVolumeUSD) {
			c.TotalBridgingVolumeUSD = 0
		}
		rows = append(rows, &c)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.WalletAddress != b.WalletAddress {
			return a.WalletAddress < b.WalletAddress
		}
		if a.DistinctChainsUsed != b.DistinctChainsUsed {
			return a.DistinctChainsUsed > b.DistinctChainsUsed
		}
		return a.TotalBridgingVolumeUSD > b.TotalBridgingVolumeUSD
	})

	out := rows[:0]
	for _, r := range rows {
		if len(out) > 0 && out[len(out)-1].WalletAddress == r.WalletAddress {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CleanEnrichment lowercases addresses, nulls out-of-range win rates and
// keeps the first row per wallet. Sorted by wallet address.
func CleanEnrichment(raw []*domain.WalletEnrichment) ([]*domain.WalletEnrichment, error) {
	rows := make([]*domain.WalletEnrichment, 0, len(raw))
	for i, r := range raw {
		if r == nil || strings.TrimSpace(r.WalletAddress) == "" {
			return nil, fmt.Errorf("wallet_enrichment row %d: empty wallet_address: %w", i, ErrSchemaViolation)
		}
		c := *r
		c.WalletAddress = strings.ToLower(strings.TrimSpace(r.WalletAddress))
		if c.HistoricalWinRate != nil {
			w := *c.HistoricalWinRate
			if math.IsNaN(w) || w < 0 || w > 1 {
				c.HistoricalWinRate = nil
			}
		}
		if c.RealizedProfitUSD != nil && math.IsNaN(*c.RealizedProfitUSD) {
			c.RealizedProfitUSD = nil
		}
		rows = append(rows, &c)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].WalletAddress < rows[j].WalletAddress })

	out := rows[:0]
	for _, r := range rows {
		if len(out) > 0 && out[len(out)-1].WalletAddress == r.WalletAddress {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
