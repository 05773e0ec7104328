// Package cohort resolves each wallet's first interaction and assigns it to a weekly cohort.
package cohort

import (
	"sort"

	"defi-cohort-lab/internal/domain"
)

// Resolve returns one assignment per wallet, sorted by wallet address.
//
// The first interaction is the transaction with the minimum block timestamp;
// equal timestamps are broken by the lexicographically smallest tx hash.
// Labels are left-joined by wallet; unlabeled wallets get "unknown".
func Resolve(txs []*domain.Transaction, labels []*domain.WalletLabel) []*domain.WalletCohortAssignment {
	first := make(map[string]*domain.Transaction)
	for _, tx := range txs {
		cur, ok := first[tx.FromAddress]
		if !ok || precedes(tx, cur) {
			first[tx.FromAddress] = tx
		}
	}

	byWallet := make(map[string]*domain.WalletLabel, len(labels))
	for _, l := range labels {
		if _, ok := byWallet[l.WalletAddress]; !ok {
			byWallet[l.WalletAddress] = l
		}
	}

	out := make([]*domain.WalletCohortAssignment, 0, len(first))
	for wallet, tx := range first {
		source, labelType := domain.UnknownSource, domain.UnknownSource
		if l, ok := byWallet[wallet]; ok {
			source, labelType = l.Label, l.LabelType
		}

		week := domain.WeekStart(tx.BlockTimestamp)
		out = append(out, &domain.WalletCohortAssignment{
			WalletAddress:        wallet,
			FirstProtocol:        tx.ProtocolName,
			FirstTxType:          tx.TxType,
			FirstTxHash:          tx.TxHash,
			FirstInteractionDate: tx.Day,
			FirstInteractionAt:   tx.BlockTimestamp,
			CohortWeek:           week,
			CohortID:             domain.CohortID(week),
			AcquisitionSource:    source,
			LabelType:            labelType,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].WalletAddress < out[j].WalletAddress })
	return out
}

// precedes reports whether a is an earlier first-interaction candidate than b.
func precedes(a, b *domain.Transaction) bool {
	if !a.BlockTimestamp.Equal(b.BlockTimestamp) {
		return a.BlockTimestamp.Before(b.BlockTimestamp)
	}
	return a.TxHash < b.TxHash
}

// Index maps wallet address to its assignment.
func Index(assignments []*domain.WalletCohortAssignment) map[string]*domain.WalletCohortAssignment {
	idx := make(map[string]*domain.WalletCohortAssignment, len(assignments))
	for _, a := range assignments {
		idx[a.WalletAddress] = a
	}
	return idx
}

// Sizes counts wallets per (cohort_id, acquisition_source), sorted by both keys.
func Sizes(assignments []*domain.WalletCohortAssignment) []domain.CohortSize {
	type key struct{ cohort, source string }
	counts := make(map[key]int)
	for _, a := range assignments {
		counts[key{a.CohortID, a.AcquisitionSource}]++
	}

	out := make([]domain.CohortSize, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.CohortSize{CohortID: k.cohort, AcquisitionSource: k.source, Wallets: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CohortID != out[j].CohortID {
			return out[i].CohortID < out[j].CohortID
		}
		return out[i].AcquisitionSource < out[j].AcquisitionSource
	})
	return out
}
