// Package orchestrator runs the full-refresh pipeline.
// It coordinates: load → clean → cohorts → activity/sybil/revenue →
// retention/attribution → dimensions → publish
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"defi-cohort-lab/internal/activity"
	"defi-cohort-lab/internal/attribution"
	"defi-cohort-lab/internal/cleaning"
	"defi-cohort-lab/internal/cohort"
	"defi-cohort-lab/internal/config"
	"defi-cohort-lab/internal/dimension"
	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/observability"
	"defi-cohort-lab/internal/reporting"
	"defi-cohort-lab/internal/retention"
	"defi-cohort-lab/internal/retry"
	"defi-cohort-lab/internal/revenue"
	"defi-cohort-lab/internal/storage"
	"defi-cohort-lab/internal/sybil"
)

// Orchestrator coordinates one pipeline execution at a time.
type Orchestrator struct {
	source  storage.SourceReader
	sinks   []storage.SnapshotPublisher
	runs    storage.RunStore
	metrics *observability.Metrics
	logger  *zap.Logger

	workers       int
	ethTokenID    string
	startDate     time.Time
	protocolNames map[string]string
	registry      *revenue.Registry
	thresholds    sybil.Thresholds
	retry         retry.Config
	exportDir     string

	now   func() time.Time
	onRun func(*domain.PipelineRun)

	running sync.Mutex
	mu      sync.RWMutex
	last    *domain.Snapshot
}

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Options for creating Orchestrator.
type Options struct {
	// Required
	Source storage.SourceReader

	// Optional stores
	Sinks   []storage.SnapshotPublisher
	Runs    storage.RunStore
	Metrics *observability.Metrics
	Logger  *zap.Logger

	// Run settings
	Workers       int
	ETHTokenID    string
	StartDate     time.Time         // zero disables the filter
	ProtocolNames map[string]string // slug -> display name
	Rates         *revenue.Rates    // nil uses revenue.DefaultRates
	Thresholds    *sybil.Thresholds // nil uses sybil.DefaultThresholds
	Retry         retry.Config
	ExportDir     string // empty disables file export

	// Clock overrides time.Now for deterministic tests.
	Clock func() time.Time
	// OnRun is called with a copy of the run record on every status change.
	OnRun func(*domain.PipelineRun)
}

// OptionsFromConfig fills the run settings of Options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return Options{}, err
	}
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.Retry.MaxRetries
	if cfg.Retry.InitialDelay > 0 {
		rc.InitialDelay = cfg.Retry.InitialDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		rc.MaxDelay = cfg.Retry.MaxDelay
	}

	return Options{
		Workers:       cfg.Pipeline.Workers,
		ETHTokenID:    cfg.Pipeline.ETHTokenID,
		StartDate:     start,
		ProtocolNames: cfg.ProtocolNames(),
		Rates: &revenue.Rates{
			SwapFeeRate:      cfg.Revenue.SwapFeeRate,
			DailyYieldSpread: cfg.Revenue.DailyYieldSpread,
		},
		Thresholds: &sybil.Thresholds{
			MinTxsTiming:         cfg.Sybil.MinTxsTiming,
			MaxTimeStddevSeconds: cfg.Sybil.MaxTimeStddevSeconds,
			MinTxsValue:          cfg.Sybil.MinTxsValue,
		},
		Retry:     rc,
		ExportDir: cfg.Pipeline.OutputDir,
	}, nil
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		source:        opts.Source,
		sinks:         opts.Sinks,
		runs:          opts.Runs,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		workers:       opts.Workers,
		ethTokenID:    opts.ETHTokenID,
		startDate:     opts.StartDate,
		protocolNames: opts.ProtocolNames,
		registry:      revenue.DefaultRegistry(revenue.DefaultRates()),
		thresholds:    sybil.DefaultThresholds(),
		retry:         opts.Retry,
		exportDir:     opts.ExportDir,
		now:           opts.Clock,
		onRun:         opts.OnRun,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.workers <= 0 {
		o.workers = 4
	}
	if o.ethTokenID == "" {
		o.ethTokenID = "ethereum"
	}
	if opts.Rates != nil {
		o.registry = revenue.DefaultRegistry(*opts.Rates)
	}
	if opts.Thresholds != nil {
		o.thresholds = *opts.Thresholds
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// LastSnapshot returns the snapshot built by the most recent successful run.
func (o *Orchestrator) LastSnapshot() *domain.Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// Run executes the full refresh.
// Phases:
//  1. Load raw inputs (parallel)
//  2. Clean
//  3. Resolve cohorts
//  4. Activity spine, sybil scores, revenue (parallel)
//  5. Retention, attribution (parallel)
//  6. Dimensions (parallel)
//  7. Publish to every sink and export files
//
// On a stage error the returned run record carries status failed and nothing
// from this run has been published. Concurrent calls get ErrRunInProgress
// and a nil record.
func (o *Orchestrator) Run(ctx context.Context) (*domain.PipelineRun, error) {
	if !o.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.running.Unlock()

	started := o.now()
	run := &domain.PipelineRun{
		ID:         uuid.NewString(),
		Status:     domain.RunStatusRunning,
		StartedAt:  started,
		InputRows:  map[string]int{},
		OutputRows: map[string]int{},
	}
	logger := o.logger.With(zap.String("run_id", run.ID))
	logger.Info("pipeline run started")

	if o.runs != nil {
		if err := o.runs.Insert(ctx, run); err != nil {
			logger.Warn("failed to record run start", zap.Error(err))
		}
	}
	o.notify(run)

	snap, err := o.execute(ctx, logger, run)
	if err != nil {
		return o.finish(ctx, logger, run, err), err
	}

	o.mu.Lock()
	o.last = snap
	o.mu.Unlock()
	return o.finish(ctx, logger, run, nil), nil
}

func (o *Orchestrator) execute(ctx context.Context, logger *zap.Logger, run *domain.PipelineRun) (*domain.Snapshot, error) {
	pool := pond.NewPool(o.workers)
	defer pool.StopAndWait()

	// Phase 1: Load raw inputs
	var inputs *cleaning.Inputs
	err := o.stage(logger, "load", func() error {
		var err error
		inputs, err = o.loadInputs(ctx, pool)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load inputs) failed: %w", err)
	}
	run.InputRows = inputs.RowCounts()
	logger.Info("Phase 1: loaded inputs", zap.Any("rows", run.InputRows))

	// Phase 2: Clean
	var data *cleaning.Dataset
	err = o.stage(logger, "clean", func() error {
		var report *cleaning.Report
		var err error
		data, report, err = cleaning.Clean(inputs, cleaning.Options{
			StartDate:     o.startDate,
			ProtocolNames: o.protocolNames,
		})
		if report != nil {
			o.recordRejected(report)
			logger.Info("Phase 2: cleaned inputs",
				zap.Int("transactions_kept", report.Transactions.Kept),
				zap.Int("duplicates", report.Transactions.Duplicates),
				zap.Int("failed", report.Transactions.Failed),
				zap.Int("before_start_date", report.Transactions.BeforeStartDate),
				zap.Int("dropped_prices", report.DroppedPrices),
				zap.Int("dropped_tvl", report.DroppedTVL),
			)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("phase 2 (clean) failed: %w", err)
	}

	// Phase 3: Cohorts
	var assignments []*domain.WalletCohortAssignment
	o.step(logger, "cohorts", func() {
		assignments = cohort.Resolve(data.Transactions, data.Labels)
	})
	logger.Info("Phase 3: resolved cohorts", zap.Int("wallets", len(assignments)))

	snap := &domain.Snapshot{RunID: run.ID, Cohorts: assignments}

	// Phase 4: Activity, sybil and revenue are independent
	group := pool.NewGroupContext(ctx)
	group.Submit(func() {
		o.step(logger, "activity", func() {
			snap.Activity = activity.Reconstruct(data.Transactions, assignments)
		})
	})
	group.Submit(func() {
		o.step(logger, "sybil", func() {
			snap.Behavior = sybil.Score(data.Transactions, o.thresholds)
		})
	})
	group.Submit(func() {
		o.step(logger, "revenue", func() {
			snap.Revenue = revenue.NewEstimator(o.registry, o.ethTokenID).Estimate(data.Transactions, data.Prices, data.TVL)
		})
	})
	if err := waitGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("phase 4 (activity, sybil, revenue) failed: %w", err)
	}
	logger.Info("Phase 4: built activity, behavior and revenue",
		zap.Int("activity_periods", len(snap.Activity)),
		zap.Int("behavior_scores", len(snap.Behavior)),
		zap.Int("revenue_days", len(snap.Revenue)),
	)

	// Phase 5: Retention and attribution
	group = pool.NewGroupContext(ctx)
	group.Submit(func() {
		o.step(logger, "retention", func() {
			snap.Retention = retention.Aggregate(snap.Activity, cohort.Sizes(assignments))
		})
	})
	group.Submit(func() {
		o.step(logger, "attribution", func() {
			snap.Attribution = attribution.Attribute(snap.Revenue, data.Transactions, assignments)
		})
	})
	if err := waitGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("phase 5 (retention, attribution) failed: %w", err)
	}
	logger.Info("Phase 5: built retention and attribution",
		zap.Int("retention_rows", len(snap.Retention)),
		zap.Int("attribution_rows", len(snap.Attribution)),
	)

	// Phase 6: Dimensions
	group = pool.NewGroupContext(ctx)
	group.Submit(func() {
		o.step(logger, "dim_wallets", func() {
			snap.Wallets = dimension.BuildWallets(dimension.WalletInputs{
				Assignments:  assignments,
				Transactions: data.Transactions,
				Activity:     snap.Activity,
				Behavior:     snap.Behavior,
				Prices:       data.Prices,
				CrossChain:   data.CrossChain,
				Enrichment:   data.Enrichment,
				ETHTokenID:   o.ethTokenID,
			})
		})
	})
	group.Submit(func() {
		o.step(logger, "dim_protocols", func() {
			snap.Protocols = dimension.BuildProtocols(dimension.ProtocolInputs{
				Transactions: data.Transactions,
				Revenue:      snap.Revenue,
				TVL:          data.TVL,
				Behavior:     snap.Behavior,
			})
		})
	})
	if err := waitGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("phase 6 (dimensions) failed: %w", err)
	}
	logger.Info("Phase 6: built dimensions",
		zap.Int("wallets", len(snap.Wallets)),
		zap.Int("protocols", len(snap.Protocols)),
	)

	version, err := reporting.DataVersion(snap)
	if err != nil {
		return nil, fmt.Errorf("phase 7 (data version) failed: %w", err)
	}
	run.DataVersion = version
	run.OutputRows = snap.RowCounts()

	// Phase 7: Publish
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("phase 7 (publish) aborted: %w", err)
	}

	// Files are rendered before any sink sees the snapshot and only swapped
	// in once every sink has it.
	var staged *reporting.StagedExport
	if o.exportDir != "" {
		exported := *run
		exported.Status = domain.RunStatusSuccess
		staged, err = reporting.StageExport(o.exportDir, &exported, snap)
		if err != nil {
			return nil, fmt.Errorf("phase 7 (export) failed: %w", err)
		}
	}

	for _, sink := range o.sinks {
		if err := o.publish(ctx, logger, sink, snap); err != nil {
			if staged != nil {
				staged.Discard()
			}
			return nil, fmt.Errorf("phase 7 (publish %s) failed: %w", sink.Name(), err)
		}
	}

	if staged != nil {
		files, err := staged.Commit()
		if err != nil {
			return nil, fmt.Errorf("phase 7 (export) failed: %w", err)
		}
		logger.Info("Phase 7: exported files", zap.String("dir", o.exportDir), zap.Int("files", len(files)))
	}

	return snap, nil
}

// loadInputs reads all six sources concurrently.
func (o *Orchestrator) loadInputs(ctx context.Context, pool pond.Pool) (*cleaning.Inputs, error) {
	in := &cleaning.Inputs{}
	errs := make([]error, 6)

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	group.Submit(func() { in.Transactions, errs[0] = o.source.Transactions(groupCtx) })
	group.Submit(func() { in.Prices, errs[1] = o.source.TokenPrices(groupCtx) })
	group.Submit(func() { in.TVL, errs[2] = o.source.ProtocolTVL(groupCtx) })
	group.Submit(func() { in.Labels, errs[3] = o.source.WalletLabels(groupCtx) })
	group.Submit(func() { in.CrossChain, errs[4] = o.source.CrossChainActivity(groupCtx) })
	group.Submit(func() { in.Enrichment, errs[5] = o.source.WalletEnrichment(groupCtx) })

	if err := waitGroup(ctx, group); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return in, nil
}

// publish writes snap to one sink with retry.
func (o *Orchestrator) publish(ctx context.Context, logger *zap.Logger, sink storage.SnapshotPublisher, snap *domain.Snapshot) error {
	start := time.Now()
	err := retry.WithBackoff(ctx, o.retry, logger, "publish "+sink.Name(), func() error {
		return sink.Publish(ctx, snap)
	})
	if o.metrics != nil {
		o.metrics.RecordPublish(sink.Name(), time.Since(start).Seconds(), err)
	}
	if err != nil {
		return err
	}
	logger.Info("Phase 7: published snapshot",
		zap.String("sink", sink.Name()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// stage times fn and records it under name.
func (o *Orchestrator) stage(logger *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	o.recordStage(logger, name, time.Since(start), err)
	return err
}

// step is stage for computations that cannot fail.
func (o *Orchestrator) step(logger *zap.Logger, name string, fn func()) {
	start := time.Now()
	fn()
	o.recordStage(logger, name, time.Since(start), nil)
}

func (o *Orchestrator) recordStage(logger *zap.Logger, name string, elapsed time.Duration, err error) {
	if o.metrics != nil {
		o.metrics.RecordStage(name, elapsed.Seconds())
	}
	logger.Debug("stage finished", zap.String("stage", name), zap.Duration("duration", elapsed), zap.Error(err))
}

func (o *Orchestrator) recordRejected(r *cleaning.Report) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordRejected("duplicate_tx", r.Transactions.Duplicates)
	o.metrics.RecordRejected("failed_tx", r.Transactions.Failed)
	o.metrics.RecordRejected("before_start_date", r.Transactions.BeforeStartDate)
	o.metrics.RecordRejected("invalid_price", r.DroppedPrices)
	o.metrics.RecordRejected("invalid_tvl", r.DroppedTVL)
}

// finish stamps the final status and persists the run record.
func (o *Orchestrator) finish(ctx context.Context, logger *zap.Logger, run *domain.PipelineRun, runErr error) *domain.PipelineRun {
	completed := o.now()
	run.CompletedAt = &completed
	run.Status = domain.RunStatusSuccess
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
		run.OutputRows = map[string]int{}
		run.DataVersion = ""
	}

	// The run log must be written even when ctx was cancelled.
	if o.runs != nil {
		if err := o.runs.Update(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run completion", zap.Error(err))
		}
	}

	duration := completed.Sub(run.StartedAt)
	if o.metrics != nil {
		o.metrics.RecordPipelineRun(run.Status, duration.Seconds(), completed.Unix())
		o.metrics.SetRowCounts(run.InputRows, run.OutputRows)
	}

	if runErr != nil {
		logger.Error("pipeline run failed", zap.Duration("duration", duration), zap.Error(runErr))
	} else {
		logger.Info("pipeline run completed",
			zap.Duration("duration", duration),
			zap.String("data_version", run.DataVersion),
			zap.Any("rows", run.OutputRows),
		)
	}
	o.notify(run)
	return run
}

func (o *Orchestrator) notify(run *domain.PipelineRun) {
	if o.onRun == nil {
		return
	}
	cp := *run
	o.onRun(&cp)
}

// waitGroup waits for the group, treating a cancelled run context as an error.
func waitGroup(ctx context.Context, group pond.TaskGroup) error {
	if err := group.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return err
	}
	return ctx.Err()
}
