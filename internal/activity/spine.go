// Package activity reconstructs the wallet × week activity spine.
package activity

import (
	"sort"
	"time"

	"defi-cohort-lab/internal/domain"
)

// WeeklyAggregate is the activity of one wallet in one week.
type WeeklyAggregate struct {
	WalletAddress string
	WeekStart     time.Time
	TxCount       int
	ProtocolsUsed int
	VolumeETH     float64
}

type walletWeek struct {
	wallet string
	week   int64 // unix seconds of the week start
}

// aggregateWeekly folds transactions into per (wallet, week) aggregates.
// Transactions are expected in cleaning order so volume sums are reproducible.
func aggregateWeekly(txs []*domain.Transaction) map[walletWeek]*WeeklyAggregate {
	out := make(map[walletWeek]*WeeklyAggregate)
	protocols := make(map[walletWeek]map[string]struct{})

	for _, tx := range txs {
		k := walletWeek{tx.FromAddress, tx.Week.Unix()}
		agg, ok := out[k]
		if !ok {
			agg = &WeeklyAggregate{WalletAddress: tx.FromAddress, WeekStart: tx.Week}
			out[k] = agg
			protocols[k] = make(map[string]struct{})
		}
		agg.TxCount++
		agg.VolumeETH += tx.ValueETH
		protocols[k][tx.ProtocolName] = struct{}{}
	}

	for k, set := range protocols {
		out[k].ProtocolsUsed = len(set)
	}
	return out
}

// MaxWeek returns the latest week present in the transactions.
func MaxWeek(txs []*domain.Transaction) (time.Time, bool) {
	var latest time.Time
	for _, tx := range txs {
		if tx.Week.After(latest) {
			latest = tx.Week
		}
	}
	return latest, !latest.IsZero()
}

// Reconstruct builds the activity spine: for each assigned wallet, one row for
// every week from its cohort week through the latest week in the dataset.
// Weeks without transactions become explicit inactive rows.
// Output is sorted by (wallet_address, week_start).
func Reconstruct(txs []*domain.Transaction, assignments []*domain.WalletCohortAssignment) []*domain.ActivityPeriod {
	maxWeek, ok := MaxWeek(txs)
	if !ok {
		return nil
	}
	weekly := aggregateWeekly(txs)

	sorted := make([]*domain.WalletCohortAssignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WalletAddress < sorted[j].WalletAddress })

	var out []*domain.ActivityPeriod
	for _, a := range sorted {
		if a.CohortWeek.After(maxWeek) {
			continue
		}
		for week := a.CohortWeek; !week.After(maxWeek); week = week.AddDate(0, 0, 7) {
			period := &domain.ActivityPeriod{
				WalletAddress:     a.WalletAddress,
				WeekStart:         week,
				CohortWeek:        a.CohortWeek,
				CohortID:          a.CohortID,
				AcquisitionSource: a.AcquisitionSource,
				WeeksSinceFirst:   domain.WeeksBetween(a.CohortWeek, week),
			}
			if agg, ok := weekly[walletWeek{a.WalletAddress, week.Unix()}]; ok && agg.TxCount > 0 {
				period.IsActive = 1
				period.WeeklyTxCount = agg.TxCount
				period.ProtocolsUsed = agg.ProtocolsUsed
				period.WeekVolumeETH = agg.VolumeETH
			}
			out = append(out, period)
		}
	}
	return out
}
