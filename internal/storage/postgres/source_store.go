package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// SourceStore implements storage.SourceReader and storage.SourceWriter over
// the raw schema.
type SourceStore struct {
	pool *Pool
}

// NewSourceStore creates a new SourceStore.
func NewSourceStore(pool *Pool) *SourceStore {
	return &SourceStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.SourceReader = (*SourceStore)(nil)
	_ storage.SourceWriter = (*SourceStore)(nil)
)

// Transactions returns raw transactions ordered by (block_timestamp, tx_hash).
func (s *SourceStore) Transactions(ctx context.Context) ([]*domain.RawTransaction, error) {
	query := `
		SELECT tx_hash, block_number, block_timestamp, from_address, to_address, contract_address,
			value_wei::text, gas_used, gas_price_wei::text, method_id, function_name, is_error,
			protocol_name, chain
		FROM raw.etherscan_transactions
		ORDER BY block_timestamp ASC, tx_hash ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.RawTransaction
	for rows.Next() {
		var r domain.RawTransaction
		if err := rows.Scan(
			&r.TxHash, &r.BlockNumber, &r.BlockTimestamp, &r.FromAddress, &r.ToAddress, &r.ContractAddress,
			&r.ValueWei, &r.GasUsed, &r.GasPriceWei, &r.MethodID, &r.FunctionName, &r.IsError,
			&r.ProtocolName, &r.Chain,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		r.BlockTimestamp = r.BlockTimestamp.UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// TokenPrices returns raw prices ordered by (token_id, date).
func (s *SourceStore) TokenPrices(ctx context.Context) ([]*domain.RawTokenPrice, error) {
	query := `
		SELECT token_id, token_symbol, date, price_usd, market_cap_usd, volume_24h_usd
		FROM raw.coingecko_prices
		ORDER BY token_id ASC, date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query token prices: %w", err)
	}
	defer rows.Close()

	var out []*domain.RawTokenPrice
	for rows.Next() {
		var r domain.RawTokenPrice
		if err := rows.Scan(&r.TokenID, &r.TokenSymbol, &r.Date, &r.PriceUSD, &r.MarketCapUSD, &r.Volume24hUSD); err != nil {
			return nil, fmt.Errorf("scan token price: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ProtocolTVL returns raw TVL ordered by (protocol_slug, chain, date).
func (s *SourceStore) ProtocolTVL(ctx context.Context) ([]*domain.RawProtocolTVL, error) {
	query := `
		SELECT protocol_slug, protocol_name, chain, date, tvl_usd
		FROM raw.defillama_tvl
		ORDER BY protocol_slug ASC, chain ASC, date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query protocol tvl: %w", err)
	}
	defer rows.Close()

	var out []*domain.RawProtocolTVL
	for rows.Next() {
		var r domain.RawProtocolTVL
		if err := rows.Scan(&r.ProtocolSlug, &r.ProtocolName, &r.Chain, &r.Date, &r.TVLUSD); err != nil {
			return nil, fmt.Errorf("scan protocol tvl: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// WalletLabels returns labels ordered by (wallet_address, label).
func (s *SourceStore) WalletLabels(ctx context.Context) ([]*domain.WalletLabel, error) {
	query := `
		SELECT wallet_address, label, label_type, project, first_activity_date, total_txs
		FROM raw.dune_wallet_labels
		ORDER BY wallet_address ASC, label ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query wallet labels: %w", err)
	}
	defer rows.Close()

	var out []*domain.WalletLabel
	for rows.Next() {
		var r domain.WalletLabel
		if err := rows.Scan(&r.WalletAddress, &r.Label, &r.LabelType, &r.Project, &r.FirstActivityDate, &r.TotalTxs); err != nil {
			return nil, fmt.Errorf("scan wallet label: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// CrossChainActivity returns bridging stats ordered by wallet.
func (s *SourceStore) CrossChainActivity(ctx context.Context) ([]*domain.CrossChainActivity, error) {
	query := `
		SELECT wallet_address, distinct_chains_used, total_bridging_volume_usd, last_bridge_date
		FROM raw.cross_chain_activity
		ORDER BY wallet_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cross chain activity: %w", err)
	}
	defer rows.Close()

	var out []*domain.CrossChainActivity
	for rows.Next() {
		var r domain.CrossChainActivity
		if err := rows.Scan(&r.WalletAddress, &r.DistinctChainsUsed, &r.TotalBridgingVolumeUSD, &r.LastBridgeDate); err != nil {
			return nil, fmt.Errorf("scan cross chain activity: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// WalletEnrichment returns portfolio stats ordered by wallet.
func (s *SourceStore) WalletEnrichment(ctx context.Context) ([]*domain.WalletEnrichment, error) {
	query := `
		SELECT wallet_address, historical_win_rate, realized_profit_usd
		FROM raw.wallet_enrichment
		ORDER BY wallet_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query wallet enrichment: %w", err)
	}
	defer rows.Close()

	var out []*domain.WalletEnrichment
	for rows.Next() {
		var r domain.WalletEnrichment
		if err := rows.Scan(&r.WalletAddress, &r.HistoricalWinRate, &r.RealizedProfitUSD); err != nil {
			return nil, fmt.Errorf("scan wallet enrichment: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// upsertAll runs query once per row inside a single transaction.
func upsertAll[T any](ctx context.Context, pool *Pool, what, query string, rows []*T, args func(*T) []any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		if r == nil {
			return 0, storage.ErrInvalidInput
		}
		batch.Queue(query, args(r)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert %s: %w", what, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(rows), nil
}

func weiOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// UpsertTransactions inserts or replaces transactions by tx_hash.
func (s *SourceStore) UpsertTransactions(ctx context.Context, rows []*domain.RawTransaction) (int, error) {
	query := `
		INSERT INTO raw.etherscan_transactions (
			tx_hash, block_number, block_timestamp, from_address, to_address, contract_address,
			value_wei, gas_used, gas_price_wei, method_id, function_name, is_error, protocol_name, chain
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9::numeric, $10, $11, $12, $13, $14)
		ON CONFLICT (tx_hash) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			block_timestamp = EXCLUDED.block_timestamp,
			from_address = EXCLUDED.from_address,
			to_address = EXCLUDED.to_address,
			contract_address = EXCLUDED.contract_address,
			value_wei = EXCLUDED.value_wei,
			gas_used = EXCLUDED.gas_used,
			gas_price_wei = EXCLUDED.gas_price_wei,
			method_id = EXCLUDED.method_id,
			function_name = EXCLUDED.function_name,
			is_error = EXCLUDED.is_error,
			protocol_name = EXCLUDED.protocol_name,
			chain = EXCLUDED.chain,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "transaction", query, rows, func(r *domain.RawTransaction) []any {
		return []any{
			r.TxHash, r.BlockNumber, r.BlockTimestamp, r.FromAddress, r.ToAddress, r.ContractAddress,
			weiOrZero(r.ValueWei), r.GasUsed, weiOrZero(r.GasPriceWei), r.MethodID, r.FunctionName, r.IsError,
			r.ProtocolName, r.Chain,
		}
	})
}

// UpsertTokenPrices inserts or replaces prices by (token_id, date).
func (s *SourceStore) UpsertTokenPrices(ctx context.Context, rows []*domain.RawTokenPrice) (int, error) {
	query := `
		INSERT INTO raw.coingecko_prices (token_id, token_symbol, date, price_usd, market_cap_usd, volume_24h_usd)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_id, date) DO UPDATE SET
			token_symbol = EXCLUDED.token_symbol,
			price_usd = EXCLUDED.price_usd,
			market_cap_usd = EXCLUDED.market_cap_usd,
			volume_24h_usd = EXCLUDED.volume_24h_usd,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "token price", query, rows, func(r *domain.RawTokenPrice) []any {
		return []any{r.TokenID, r.TokenSymbol, r.Date, r.PriceUSD, r.MarketCapUSD, r.Volume24hUSD}
	})
}

// UpsertProtocolTVL inserts or replaces TVL rows by (protocol_slug, chain, date).
func (s *SourceStore) UpsertProtocolTVL(ctx context.Context, rows []*domain.RawProtocolTVL) (int, error) {
	query := `
		INSERT INTO raw.defillama_tvl (protocol_slug, protocol_name, chain, date, tvl_usd)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (protocol_slug, chain, date) DO UPDATE SET
			protocol_name = EXCLUDED.protocol_name,
			tvl_usd = EXCLUDED.tvl_usd,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "protocol tvl", query, rows, func(r *domain.RawProtocolTVL) []any {
		return []any{r.ProtocolSlug, r.ProtocolName, r.Chain, r.Date, r.TVLUSD}
	})
}

// UpsertWalletLabels inserts or replaces labels by (wallet_address, label).
func (s *SourceStore) UpsertWalletLabels(ctx context.Context, rows []*domain.WalletLabel) (int, error) {
	query := `
		INSERT INTO raw.dune_wallet_labels (wallet_address, label, label_type, project, first_activity_date, total_txs)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet_address, label) DO UPDATE SET
			label_type = EXCLUDED.label_type,
			project = EXCLUDED.project,
			first_activity_date = EXCLUDED.first_activity_date,
			total_txs = EXCLUDED.total_txs,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "wallet label", query, rows, func(r *domain.WalletLabel) []any {
		return []any{r.WalletAddress, r.Label, r.LabelType, r.Project, r.FirstActivityDate, r.TotalTxs}
	})
}

// UpsertCrossChainActivity inserts or replaces bridging stats by wallet.
func (s *SourceStore) UpsertCrossChainActivity(ctx context.Context, rows []*domain.CrossChainActivity) (int, error) {
	query := `
		INSERT INTO raw.cross_chain_activity (wallet_address, distinct_chains_used, total_bridging_volume_usd, last_bridge_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address) DO UPDATE SET
			distinct_chains_used = EXCLUDED.distinct_chains_used,
			total_bridging_volume_usd = EXCLUDED.total_bridging_volume_usd,
			last_bridge_date = EXCLUDED.last_bridge_date,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "cross chain activity", query, rows, func(r *domain.CrossChainActivity) []any {
		return []any{r.WalletAddress, r.DistinctChainsUsed, r.TotalBridgingVolumeUSD, r.LastBridgeDate}
	})
}

// UpsertWalletEnrichment inserts or replaces portfolio stats by wallet.
func (s *SourceStore) UpsertWalletEnrichment(ctx context.Context, rows []*domain.WalletEnrichment) (int, error) {
	query := `
		INSERT INTO raw.wallet_enrichment (wallet_address, historical_win_rate, realized_profit_usd)
		VALUES ($1, $2, $3)
		ON CONFLICT (wallet_address) DO UPDATE SET
			historical_win_rate = EXCLUDED.historical_win_rate,
			realized_profit_usd = EXCLUDED.realized_profit_usd,
			loaded_at = NOW()
	`
	return upsertAll(ctx, s.pool, "wallet enrichment", query, rows, func(r *domain.WalletEnrichment) []any {
		return []any{r.WalletAddress, r.HistoricalWinRate, r.RealizedProfitUSD}
	})
}
