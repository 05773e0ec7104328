package storage

import (
	"context"

	"defi-cohort-lab/internal/domain"
)

// SourceReader provides the raw pipeline inputs.
// Every method returns the full table; the pipeline is a full refresh.
type SourceReader interface {
	// Transactions returns raw protocol transactions.
	Transactions(ctx context.Context) ([]*domain.RawTransaction, error)

	// TokenPrices returns raw daily token prices.
	TokenPrices(ctx context.Context) ([]*domain.RawTokenPrice, error)

	// ProtocolTVL returns raw daily protocol TVL.
	ProtocolTVL(ctx context.Context) ([]*domain.RawProtocolTVL, error)

	// WalletLabels returns external wallet labels.
	WalletLabels(ctx context.Context) ([]*domain.WalletLabel, error)

	// CrossChainActivity returns optional bridging stats. May be empty.
	CrossChainActivity(ctx context.Context) ([]*domain.CrossChainActivity, error)

	// WalletEnrichment returns optional portfolio stats. May be empty.
	WalletEnrichment(ctx context.Context) ([]*domain.WalletEnrichment, error)
}

// SourceWriter loads raw inputs. Rows are upserted on their natural key.
type SourceWriter interface {
	UpsertTransactions(ctx context.Context, rows []*domain.RawTransaction) (int, error)
	UpsertTokenPrices(ctx context.Context, rows []*domain.RawTokenPrice) (int, error)
	UpsertProtocolTVL(ctx context.Context, rows []*domain.RawProtocolTVL) (int, error)
	UpsertWalletLabels(ctx context.Context, rows []*domain.WalletLabel) (int, error)
	UpsertCrossChainActivity(ctx context.Context, rows []*domain.CrossChainActivity) (int, error)
	UpsertWalletEnrichment(ctx context.Context, rows []*domain.WalletEnrichment) (int, error)
}

// SnapshotPublisher replaces every output table with the contents of a snapshot.
// Publish is all-or-nothing: on error, previously published tables are left intact.
type SnapshotPublisher interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Publish atomically replaces the published outputs.
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

// RowCounter reports how many rows each published table currently holds.
type RowCounter interface {
	RowCounts(ctx context.Context) (map[string]int, error)
}

// SnapshotReader returns the most recently published snapshot.
type SnapshotReader interface {
	// Latest returns ErrNoSnapshot if nothing has been published.
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

// RunStore persists pipeline run records.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, run *domain.PipelineRun) error

	// Update overwrites an existing run. Returns ErrNotFound if absent.
	Update(ctx context.Context, run *domain.PipelineRun) error

	// GetByID retrieves a run. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.PipelineRun, error)

	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.PipelineRun, error)
}
