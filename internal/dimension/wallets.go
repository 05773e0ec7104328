// Package dimension builds the flat wallet and protocol summary tables.
package dimension

import (
	"sort"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/lookup"
	"defi-cohort-lab/internal/metrics"
)

// WalletInputs are the upstream tables joined into the wallet dimension.
type WalletInputs struct {
	Assignments  []*domain.WalletCohortAssignment
	Transactions []*domain.Transaction
	Activity     []*domain.ActivityPeriod
	Behavior     []*domain.WalletBehaviorScore
	Prices       []*domain.TokenPrice
	CrossChain   []*domain.CrossChainActivity
	Enrichment   []*domain.WalletEnrichment
	ETHTokenID   string
}

type walletTotals struct {
	txs       int
	volumeETH float64
	volumeUSD float64
	protocols map[string]struct{}
	firstTx   time.Time
	lastTx    time.Time
}

// BuildWallets returns one row per assigned wallet, sorted by wallet address.
//
// Percentiles follow NTILE(100) over wallets ordered by lifetime USD volume
// descending, then ETH volume descending, then wallet address.
func BuildWallets(in WalletInputs) []*domain.WalletDimension {
	ethPrice := lookup.PriceSeries(in.Prices, in.ETHTokenID)

	totals := make(map[string]*walletTotals)
	for _, tx := range in.Transactions {
		t, ok := totals[tx.FromAddress]
		if !ok {
			t = &walletTotals{protocols: make(map[string]struct{}), firstTx: tx.BlockTimestamp}
			totals[tx.FromAddress] = t
		}
		t.txs++
		t.volumeETH += tx.ValueETH
		if p := ethPrice.AsOf(tx.Day); p != nil {
			t.volumeUSD += tx.ValueETH * *p
		}
		t.protocols[tx.ProtocolName] = struct{}{}
		if tx.BlockTimestamp.Before(t.firstTx) {
			t.firstTx = tx.BlockTimestamp
		}
		if tx.BlockTimestamp.After(t.lastTx) {
			t.lastTx = tx.BlockTimestamp
		}
	}

	activeWeeks := make(map[string]int)
	for _, p := range in.Activity {
		activeWeeks[p.WalletAddress] += p.IsActive
	}

	bots := make(map[string]bool, len(in.Behavior))
	for _, b := range in.Behavior {
		bots[b.WalletAddress] = b.IsBot
	}

	crossChain := make(map[string]*domain.CrossChainActivity, len(in.CrossChain))
	for _, c := range in.CrossChain {
		crossChain[c.WalletAddress] = c
	}

	enrichment := make(map[string]*domain.WalletEnrichment, len(in.Enrichment))
	for _, e := range in.Enrichment {
		enrichment[e.WalletAddress] = e
	}

	out := make([]*domain.WalletDimension, 0, len(in.Assignments))
	for _, a := range in.Assignments {
		row := &domain.WalletDimension{
			WalletAddress:     a.WalletAddress,
			CohortID:          a.CohortID,
			CohortWeek:        a.CohortWeek,
			FirstProtocol:     a.FirstProtocol,
			FirstTxType:       a.FirstTxType,
			AcquisitionSource: a.AcquisitionSource,
			LabelType:         a.LabelType,
			FirstTxAt:         a.FirstInteractionAt,
			LastTxAt:          a.FirstInteractionAt,
			ActiveWeeks:       activeWeeks[a.WalletAddress],
			IsBot:             bots[a.WalletAddress],
			ChainPersona:      domain.PersonaUnknown,
			SmartMoneyTier:    domain.TierUnknown,
		}

		if t, ok := totals[a.WalletAddress]; ok {
			row.TotalTxs = t.txs
			row.TotalVolumeETH = t.volumeETH
			row.TotalVolumeUSD = t.volumeUSD
			row.ProtocolsUsed = len(t.protocols)
			row.FirstTxAt = t.firstTx
			row.LastTxAt = t.lastTx
		}

		if c, ok := crossChain[a.WalletAddress]; ok {
			row.DistinctChainsUsed = c.DistinctChainsUsed
			row.TotalBridgingVolumeUSD = c.TotalBridgingVolumeUSD
			row.NomadScore = metrics.SafeDiv(float64(c.DistinctChainsUsed)*c.TotalBridgingVolumeUSD, row.TotalVolumeUSD)
			row.ChainPersona = PersonaFor(c.DistinctChainsUsed, true)
		}

		if e, ok := enrichment[a.WalletAddress]; ok {
			row.HistoricalWinRate = e.HistoricalWinRate
			row.RealizedProfitUSD = e.RealizedProfitUSD
			row.SmartMoneyTier = TierFor(e.HistoricalWinRate)
		}

		out = append(out, row)
	}

	assignPercentiles(out)

	sort.Slice(out, func(i, j int) bool { return out[i].WalletAddress < out[j].WalletAddress })
	return out
}

// assignPercentiles ranks rows by volume and sets percentile and segment.
func assignPercentiles(rows []*domain.WalletDimension) {
	ranked := make([]*domain.WalletDimension, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalVolumeUSD != ranked[j].TotalVolumeUSD {
			return ranked[i].TotalVolumeUSD > ranked[j].TotalVolumeUSD
		}
		if ranked[i].TotalVolumeETH != ranked[j].TotalVolumeETH {
			return ranked[i].TotalVolumeETH > ranked[j].TotalVolumeETH
		}
		return ranked[i].WalletAddress < ranked[j].WalletAddress
	})

	buckets := metrics.Ntile(len(ranked), 100)
	for i, row := range ranked {
		row.VolumePercentile = buckets[i]
		row.VolumeSegment = SegmentFor(buckets[i])
	}
}
