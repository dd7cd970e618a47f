package storage

import (
	"context"
	"errors"
	"time"

	"vaultIndexer/internal/model"
)

// ErrPersistence wraps any store failure that aborts a block transaction.
var ErrPersistence = errors.New("persistence failure")

// Store is the durable sink for indexed events and the indexer cursor.
type Store interface {
	// LoadCursor returns the stored cursor and false when none has been written yet.
	LoadCursor(ctx context.Context) (model.Cursor, bool, error)
	// WithBlockTx runs fn in a single transaction. Returning an error rolls back every write.
	WithBlockTx(ctx context.Context, fn func(Tx) error) error
	// AdvanceCursor moves the cursor forward. Heights at or below the stored value are a no-op.
	AdvanceCursor(ctx context.Context, height uint64, at time.Time) error
	Ping(ctx context.Context) error
	Close()
}

// Tx is the set of writes available inside a block transaction.
type Tx interface {
	// InsertEvent stores the raw event. inserted is false when (tx hash, log index) already exists.
	InsertEvent(ctx context.Context, event *model.RawEvent) (id int64, inserted bool, err error)

	InsertDeposit(ctx context.Context, eventID int64, ts time.Time, d model.Deposit) error
	InsertWithdrawal(ctx context.Context, eventID int64, ts time.Time, w model.Withdrawal) error
	InsertDeployment(ctx context.Context, eventID int64, ts time.Time, d model.Deployment) error
	InsertRecall(ctx context.Context, eventID int64, ts time.Time, r model.Recall) error
	InsertLoss(ctx context.Context, eventID int64, ts time.Time, l model.Loss) error
	InsertOracleUpdate(ctx context.Context, eventID int64, ts time.Time, u model.OracleUpdate) error
	InsertPerformanceFee(ctx context.Context, eventID int64, ts time.Time, f model.PerformanceFeeAccrual) error
	InsertManagementFee(ctx context.Context, eventID int64, ts time.Time, f model.ManagementFeeAccrual) error
	InsertCircuitBreaker(ctx context.Context, eventID int64, ts time.Time, c model.CircuitBreakerTransition) error
	InsertOrderPlacement(ctx context.Context, eventID int64, ts time.Time, o model.OrderPlacement) error

	AdvanceCursor(ctx context.Context, height uint64, at time.Time) error
}

// Table names of the derived event tables.
const (
	TableEvents          = "events"
	TableDeposits        = "deposits"
	TableWithdrawals     = "withdrawals"
	TableDeployments     = "deployments"
	TableRecalls         = "recalls"
	TableLosses          = "losses"
	TableOracleUpdates   = "oracle_updates"
	TablePerformanceFees = "performance_fees"
	TableManagementFees  = "management_fees"
	TableCircuitBreakers = "circuit_breakers"
	TableOrdersPlaced    = "orders_placed"
)

// DerivedTables lists the per-type tables in schema order.
var DerivedTables = []string{
	TableDeposits,
	TableWithdrawals,
	TableDeployments,
	TableRecalls,
	TableLosses,
	TableOracleUpdates,
	TablePerformanceFees,
	TableManagementFees,
	TableCircuitBreakers,
	TableOrdersPlaced,
}
