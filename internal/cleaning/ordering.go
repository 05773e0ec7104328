package cleaning

import (
	"sort"

	"defi-cohort-lab/internal/domain"
)

// SortTransactions orders transactions by (block_timestamp ASC, tx_hash ASC).
// Every downstream stage iterates in this order, which keeps floating point
// sums reproducible across runs.
func SortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return compareTransactions(txs[i], txs[j]) < 0
	})
}

// compareTransactions returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTransactions(a, b *domain.Transaction) int {
	if !a.BlockTimestamp.Equal(b.BlockTimestamp) {
		if a.BlockTimestamp.Before(b.BlockTimestamp) {
			return -1
		}
		return 1
	}
	if a.TxHash != b.TxHash {
		if a.TxHash < b.TxHash {
			return -1
		}
		return 1
	}
	return 0
}
