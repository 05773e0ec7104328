package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// SourceStore is an in-memory implementation of storage.SourceReader and
// storage.SourceWriter. Upserts replace rows with the same natural key.
type SourceStore struct {
	mu           sync.RWMutex
	transactions map[string]*domain.RawTransaction     // keyed by tx_hash
	prices       map[string]*domain.RawTokenPrice      // keyed by token_id|date
	tvl          map[string]*domain.RawProtocolTVL     // keyed by slug|chain|date
	labels       map[string]*domain.WalletLabel        // keyed by wallet|label
	crossChain   map[string]*domain.CrossChainActivity // keyed by wallet
	enrichment   map[string]*domain.WalletEnrichment   // keyed by wallet
}

// NewSourceStore creates an empty in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		transactions: make(map[string]*domain.RawTransaction),
		prices:       make(map[string]*domain.RawTokenPrice),
		tvl:          make(map[string]*domain.RawProtocolTVL),
		labels:       make(map[string]*domain.WalletLabel),
		crossChain:   make(map[string]*domain.CrossChainActivity),
		enrichment:   make(map[string]*domain.WalletEnrichment),
	}
}

// Compile-time interface checks.
var (
	_ storage.SourceReader = (*SourceStore)(nil)
	_ storage.SourceWriter = (*SourceStore)(nil)
)

const dateKey = "2006-01-02"

func priceKey(p *domain.RawTokenPrice) string {
	return p.TokenID + "|" + p.Date.UTC().Format(dateKey)
}

func tvlKey(t *domain.RawProtocolTVL) string {
	return t.ProtocolSlug + "|" + t.Chain + "|" + t.Date.UTC().Format(dateKey)
}

func labelKey(l *domain.WalletLabel) string {
	return strings.ToLower(l.WalletAddress) + "|" + l.Label
}

// upsert copies rows into data under key. Rows failing valid are rejected
// before anything is written.
func upsert[T any](mu *sync.RWMutex, data map[string]*T, rows []*T, key func(*T) string, valid func(*T) bool) (int, error) {
	for _, r := range rows {
		if r == nil || !valid(r) {
			return 0, storage.ErrInvalidInput
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, r := range rows {
		cp := *r
		data[key(r)] = &cp
	}
	return len(rows), nil
}

// snapshot returns copies of all values ordered by key.
func snapshot[T any](mu *sync.RWMutex, data map[string]*T) []*T {
	mu.RLock()
	defer mu.RUnlock()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		cp := *data[k]
		out = append(out, &cp)
	}
	return out
}

// UpsertTransactions adds or replaces transactions by tx_hash.
func (s *SourceStore) UpsertTransactions(_ context.Context, rows []*domain.RawTransaction) (int, error) {
	return upsert(&s.mu, s.transactions, rows,
		func(r *domain.RawTransaction) string { return strings.ToLower(r.TxHash) },
		func(r *domain.RawTransaction) bool { return r.TxHash != "" })
}

// UpsertTokenPrices adds or replaces prices by (token_id, date).
func (s *SourceStore) UpsertTokenPrices(_ context.Context, rows []*domain.RawTokenPrice) (int, error) {
	return upsert(&s.mu, s.prices, rows, priceKey,
		func(r *domain.RawTokenPrice) bool { return r.TokenID != "" })
}

// UpsertProtocolTVL adds or replaces TVL rows by (slug, chain, date).
func (s *SourceStore) UpsertProtocolTVL(_ context.Context, rows []*domain.RawProtocolTVL) (int, error) {
	return upsert(&s.mu, s.tvl, rows, tvlKey,
		func(r *domain.RawProtocolTVL) bool { return r.ProtocolSlug != "" })
}

// UpsertWalletLabels adds or replaces labels by (wallet, label).
func (s *SourceStore) UpsertWalletLabels(_ context.Context, rows []*domain.WalletLabel) (int, error) {
	return upsert(&s.mu, s.labels, rows, labelKey,
		func(r *domain.WalletLabel) bool { return r.WalletAddress != "" })
}

// UpsertCrossChainActivity adds or replaces bridging stats by wallet.
func (s *SourceStore) UpsertCrossChainActivity(_ context.Context, rows []*domain.CrossChainActivity) (int, error) {
	return upsert(&s.mu, s.crossChain, rows,
		func(r *domain.CrossChainActivity) string { return strings.ToLower(r.WalletAddress) },
		func(r *domain.CrossChainActivity) bool { return r.WalletAddress != "" })
}

// UpsertWalletEnrichment adds or replaces portfolio stats by wallet.
func (s *SourceStore) UpsertWalletEnrichment(_ context.Context, rows []*domain.WalletEnrichment) (int, error) {
	return upsert(&s.mu, s.enrichment, rows,
		func(r *domain.WalletEnrichment) string { return strings.ToLower(r.WalletAddress) },
		func(r *domain.WalletEnrichment) bool { return r.WalletAddress != "" })
}

// Transactions returns all transactions ordered by tx_hash.
func (s *SourceStore) Transactions(_ context.Context) ([]*domain.RawTransaction, error) {
	return snapshot(&s.mu, s.transactions), nil
}

// TokenPrices returns all prices ordered by (token_id, date).
func (s *SourceStore) TokenPrices(_ context.Context) ([]*domain.RawTokenPrice, error) {
	return snapshot(&s.mu, s.prices), nil
}

// ProtocolTVL returns all TVL rows ordered by (slug, chain, date).
func (s *SourceStore) ProtocolTVL(_ context.Context) ([]*domain.RawProtocolTVL, error) {
	return snapshot(&s.mu, s.tvl), nil
}

// WalletLabels returns all labels ordered by (wallet, label).
func (s *SourceStore) WalletLabels(_ context.Context) ([]*domain.WalletLabel, error) {
	return snapshot(&s.mu, s.labels), nil
}

// CrossChainActivity returns all bridging stats ordered by wallet.
func (s *SourceStore) CrossChainActivity(_ context.Context) ([]*domain.CrossChainActivity, error) {
	return snapshot(&s.mu, s.crossChain), nil
}

// WalletEnrichment returns all portfolio stats ordered by wallet.
func (s *SourceStore) WalletEnrichment(_ context.Context) ([]*domain.WalletEnrichment, error) {
	return snapshot(&s.mu, s.enrichment), nil
}
