// Package attribution apportions protocol revenue to acquisition sources.
package attribution

import (
	"sort"

	"defi-cohort-lab/internal/cohort"
	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/metrics"
)

type dayProtocol struct {
	day      int64 // unix seconds of UTC midnight
	protocol string
}

// Attribute emits one row per (date, protocol, acquisition_source) that had
// active wallets. Revenue is split in proportion to each source's share of the
// protocol's unique wallets that day:
//
//	attributed = protocol_revenue × source_active / protocol_unique_wallets
//
// Wallets without an assignment count toward "unknown". Output is sorted by
// (date, protocol_name, acquisition_source).
func Attribute(revenue []*domain.DailyProtocolRevenue, txs []*domain.Transaction, assignments []*domain.WalletCohortAssignment) []*domain.DailyRevenueAttribution {
	byWallet := cohort.Index(assignments)

	// day/protocol -> source -> wallets
	active := make(map[dayProtocol]map[string]map[string]struct{})
	for _, tx := range txs {
		key := dayProtocol{day: tx.Day.Unix(), protocol: tx.ProtocolName}
		source := domain.UnknownSource
		if a, ok := byWallet[tx.FromAddress]; ok {
			source = a.AcquisitionSource
		}
		bySource, ok := active[key]
		if !ok {
			bySource = make(map[string]map[string]struct{})
			active[key] = bySource
		}
		if bySource[source] == nil {
			bySource[source] = make(map[string]struct{})
		}
		bySource[source][tx.FromAddress] = struct{}{}
	}

	var out []*domain.DailyRevenueAttribution
	for _, rev := range revenue {
		bySource := active[dayProtocol{day: rev.Date.Unix(), protocol: rev.ProtocolName}]
		perWallet := metrics.SafeDiv(rev.EstimatedRevenueUSD, float64(rev.UniqueWallets))

		for source, wallets := range bySource {
			var attributed *float64
			if share := metrics.SafeRatio(len(wallets), rev.UniqueWallets); share != nil {
				v := rev.EstimatedRevenueUSD * *share
				attributed = &v
			}
			out = append(out, &domain.DailyRevenueAttribution{
				Date:                  rev.Date,
				ProtocolName:          rev.ProtocolName,
				AcquisitionSource:     source,
				ActiveWallets:         len(wallets),
				ProtocolUniqueWallets: rev.UniqueWallets,
				ProtocolRevenueUSD:    rev.EstimatedRevenueUSD,
				AttributedRevenueUSD:  attributed,
				RevenuePerWalletUSD:   perWallet,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ProtocolName != b.ProtocolName {
			return a.ProtocolName < b.ProtocolName
		}
		return a.AcquisitionSource < b.AcquisitionSource
	})
	return out
}
