package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"vaultIndexer/internal/chain"
	"vaultIndexer/internal/decoder"
	"vaultIndexer/internal/dispatch"
	"vaultIndexer/internal/metrics"
	"vaultIndexer/internal/model"
	"vaultIndexer/internal/registry"
	"vaultIndexer/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	// StartBlock is the cursor value assumed when the store has none.
	StartBlock   uint64
	PollInterval time.Duration
	BatchSize    uint64
	// BlockTimeout bounds one block transaction, including after a stop signal.
	BlockTimeout time.Duration
}

// Deps are the collaborators shared by every cycle.
type Deps struct {
	Registry *registry.Registry
	Decoder  *decoder.Decoder
	Reader   chain.Reader
	Store    storage.Store
}

// CycleStats summarizes one pass over (cursor, head].
type CycleStats struct {
	From          uint64
	Head          uint64
	Cursor        uint64
	BlocksWritten int
	Inserted      int
	Duplicates    int
	Unrecognized  int
	Failed        int
}

// Runner polls the chain and writes recognized events to the store.
type Runner struct {
	cfg      RunConfig
	deps     Deps
	clock    Clock
	observer Observer
	logger   *zap.Logger
}

// NewRunner builds a Runner. A nil clock uses wall time; a nil observer logs outcomes.
func NewRunner(cfg RunConfig, deps Deps, clock Clock, observer Observer, logger *zap.Logger) (*Runner, error) {
	if deps.Registry == nil || deps.Decoder == nil || deps.Reader == nil || deps.Store == nil {
		return nil, fmt.Errorf("runner dependencies are incomplete")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock()
	}
	if observer == nil {
		observer = NewLogObserver(logger, nil)
	}
	return &Runner{cfg: cfg, deps: deps, clock: clock, observer: observer, logger: logger}, nil
}

// Run executes cycles until ctx is cancelled. Cycle failures are logged and retried on the next poll.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("indexer loop start",
		zap.Uint64("start_block", r.cfg.StartBlock),
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Uint64("batch_size", r.cfg.BatchSize),
		zap.Int("contracts", len(r.deps.Registry.Addresses())),
	)

	for {
		stats, err := r.Cycle(ctx)
		switch {
		case err == nil:
			if stats.BlocksWritten > 0 || stats.Cursor > stats.From {
				r.logger.Info("cycle complete",
					zap.Uint64("cursor", stats.Cursor),
					zap.Uint64("head", stats.Head),
					zap.Int("blocks_written", stats.BlocksWritten),
					zap.Int("inserted", stats.Inserted),
					zap.Int("duplicates", stats.Duplicates),
					zap.Int("decode_failures", stats.Failed),
				)
			}
		case ctx.Err() != nil:
			r.logger.Info("indexer loop stopped", zap.Uint64("cursor", stats.Cursor))
			return nil
		default:
			reason := failureReason(err)
			metrics.CycleFailureInc(reason)
			r.logger.Error("cycle failed", zap.String("reason", reason), zap.Uint64("cursor", stats.Cursor), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			r.logger.Info("indexer loop stopped", zap.Uint64("cursor", stats.Cursor))
			return nil
		case <-r.clock.After(r.cfg.PollInterval):
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, chain.ErrChainUnavailable):
		return "chain_unavailable"
	case errors.Is(err, storage.ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}

// Cycle indexes every block in (cursor, head]. On failure at block h the cursor is left at h-1.
func (r *Runner) Cycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	cursor, ok, err := r.deps.Store.LoadCursor(ctx)
	if err != nil {
		return stats, fmt.Errorf("load cursor: %w", err)
	}
	last := r.cfg.StartBlock
	if ok {
		last = cursor.LastIndexedBlock
	}
	stats.From, stats.Cursor = last, last

	head, err := r.deps.Reader.CurrentHeight(ctx)
	if err != nil {
		return stats, fmt.Errorf("current height: %w", err)
	}
	stats.Head = head
	metrics.ChainHeadSet(head)
	if head <= last {
		r.logger.Debug("no new blocks", zap.Uint64("cursor", last), zap.Uint64("head", head))
		return stats, nil
	}

	ranges, err := SplitRange(last+1, head, r.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	addresses := r.deps.Registry.Addresses()
	for _, blockRange := range ranges {
		r.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := r.deps.Reader.LogsInRange(ctx, blockRange.From, blockRange.To, addresses)
		if err != nil {
			return stats, fmt.Errorf("logs %d-%d: %w", blockRange.From, blockRange.To, err)
		}

		for _, block := range groupByBlock(logs, blockRange) {
			if err := ctx.Err(); err != nil {
				r.advance(ctx, &stats, block.height-1)
				return stats, err
			}
			if err := r.indexBlock(ctx, block, &stats); err != nil {
				r.advance(ctx, &stats, block.height-1)
				return stats, fmt.Errorf("block %d: %w", block.height, err)
			}
		}

		if err := r.advance(ctx, &stats, blockRange.To); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

type blockLogs struct {
	height uint64
	logs   []types.Log
}

// groupByBlock splits range-ordered logs into per-block slices, dropping any outside the range.
func groupByBlock(logs []types.Log, blockRange BlockRange) []blockLogs {
	var out []blockLogs
	for _, log := range logs {
		if !blockRange.Contains(log.BlockNumber) {
			continue
		}
		if n := len(out); n == 0 || out[n-1].height != log.BlockNumber {
			out = append(out, blockLogs{height: log.BlockNumber})
		}
		out[len(out)-1].logs = append(out[len(out)-1].logs, log)
	}
	return out
}

// indexBlock decodes a block's logs and writes the recognized ones in one transaction.
// Outcomes are reported only once the block is committed.
func (r *Runner) indexBlock(ctx context.Context, block blockLogs, stats *CycleStats) error {
	outcomes := make([]Outcome, 0, len(block.logs))
	events := make([]model.DecodedEvent, 0, len(block.logs))
	eventOutcome := make([]int, 0, len(block.logs))

	for _, log := range block.logs {
		res := r.deps.Decoder.Decode(log)
		out := logPosition(log)
		out.EventName = res.EventName
		switch res.Status {
		case decoder.StatusUnrecognized:
			out.Status = OutcomeUnrecognized
		case decoder.StatusFailed:
			out.Status = OutcomeDecodeFailure
			out.Err = res.Err
		case decoder.StatusDecoded:
			out.EventType = res.Event.Kind
			events = append(events, *res.Event)
			eventOutcome = append(eventOutcome, len(outcomes))
		}
		outcomes = append(outcomes, out)
	}

	if len(events) > 0 {
		ts, err := r.deps.Reader.BlockTimestamp(ctx, block.height)
		if err != nil {
			return err
		}

		// The write runs to completion or rollback even if ctx is cancelled mid-block.
		txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.BlockTimeout)
		defer cancel()

		start := time.Now()
		err = r.deps.Store.WithBlockTx(txCtx, func(tx storage.Tx) error {
			for i, event := range events {
				res, err := dispatch.Dispatch(txCtx, tx, event, ts)
				if err != nil {
					return fmt.Errorf("tx %s log %d: %w", event.TxHash, event.LogIndex, err)
				}
				out := &outcomes[eventOutcome[i]]
				out.EventID = res.EventID
				if res.Outcome == dispatch.Duplicate {
					out.Status = OutcomeDuplicate
				} else {
					out.Status = OutcomeInserted
				}
			}
			return tx.AdvanceCursor(txCtx, block.height, r.clock.Now())
		})
		if err != nil {
			return err
		}
		metrics.BlockProcessingTimeLog(time.Since(start))
		metrics.BlocksIndexedInc()
		metrics.LastIndexedBlockSet(block.height)
		stats.BlocksWritten++
		stats.Cursor = block.height
	}

	for _, out := range outcomes {
		switch out.Status {
		case OutcomeInserted:
			stats.Inserted++
		case OutcomeDuplicate:
			stats.Duplicates++
		case OutcomeUnrecognized:
			stats.Unrecognized++
		case OutcomeDecodeFailure:
			stats.Failed++
		}
		r.observer.Observe(out)
	}
	return nil
}

// advance moves the cursor to height if it is ahead of the cycle's position.
func (r *Runner) advance(ctx context.Context, stats *CycleStats, height uint64) error {
	if height <= stats.Cursor {
		return nil
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.BlockTimeout)
	defer cancel()
	if err := r.deps.Store.AdvanceCursor(writeCtx, height, r.clock.Now()); err != nil {
		r.logger.Error("advance cursor", zap.Uint64("height", height), zap.Error(err))
		return fmt.Errorf("advance cursor to %d: %w", height, err)
	}
	stats.Cursor = height
	metrics.LastIndexedBlockSet(height)
	return nil
}
