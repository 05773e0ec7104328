package dimension

import (
	"sort"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/lookup"
	"defi-cohort-lab/internal/metrics"
)

// ProtocolInputs are the upstream tables joined into the protocol dimension.
type ProtocolInputs struct {
	Transactions []*domain.Transaction
	Revenue      []*domain.DailyProtocolRevenue
	TVL          []*domain.ProtocolTVL
	Behavior     []*domain.WalletBehaviorScore
}

type protocolTotals struct {
	row     *domain.ProtocolDimension
	wallets map[string]struct{}
	days    map[int64]struct{}
}

// BuildProtocols returns one row per protocol seen in transactions, sorted by name.
// The chain is taken from the protocol's earliest transaction.
func BuildProtocols(in ProtocolInputs) []*domain.ProtocolDimension {
	bots := make(map[string]bool, len(in.Behavior))
	for _, b := range in.Behavior {
		bots[b.WalletAddress] = b.IsBot
	}

	byName := make(map[string]*protocolTotals)
	for _, tx := range in.Transactions {
		p, ok := byName[tx.ProtocolName]
		if !ok {
			p = &protocolTotals{
				row: &domain.ProtocolDimension{
					ProtocolName:      tx.ProtocolName,
					Chain:             tx.Chain,
					FirstActivityDate: tx.Day,
					LastActivityDate:  tx.Day,
				},
				wallets: make(map[string]struct{}),
				days:    make(map[int64]struct{}),
			}
			byName[tx.ProtocolName] = p
		}
		p.row.TotalTxs++
		p.row.TotalVolumeETH += tx.ValueETH
		p.wallets[tx.FromAddress] = struct{}{}
		p.days[tx.Day.Unix()] = struct{}{}
		p.row.FirstActivityDate = minTime(p.row.FirstActivityDate, tx.Day)
		p.row.LastActivityDate = maxTime(p.row.LastActivityDate, tx.Day)
	}

	for _, r := range in.Revenue {
		if p, ok := byName[r.ProtocolName]; ok {
			p.row.TotalVolumeUSD += r.TotalVolumeUSD
			p.row.TotalEstimatedRevenueUSD += r.EstimatedRevenueUSD
		}
	}

	tvl := lookup.TVLSeries(in.TVL)

	out := make([]*domain.ProtocolDimension, 0, len(byName))
	for _, p := range byName {
		row := p.row
		row.UniqueWallets = len(p.wallets)
		row.ActiveDays = len(p.days)
		if avg := metrics.SafeDiv(row.TotalEstimatedRevenueUSD, float64(row.ActiveDays)); avg != nil {
			row.AvgDailyRevenueUSD = *avg
		}
		if series, ok := tvl[lookup.TVLKey(row.ProtocolName, row.Chain)]; ok {
			if latest, err := series.Latest(); err == nil {
				v := latest.Value
				row.LatestTVLUSD = &v
			}
		}
		for w := range p.wallets {
			if bots[w] {
				row.BotWallets++
			}
		}
		row.BotWalletShare = metrics.SafeRatio(row.BotWallets, row.UniqueWallets)
		row.RevenuePerWalletUSD = metrics.SafeDiv(row.TotalEstimatedRevenueUSD, float64(row.UniqueWallets))
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProtocolName < out[j].ProtocolName })
	return out
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
