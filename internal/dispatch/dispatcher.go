package dispatch

import (
	"context"
	"fmt"
	"time"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

// Outcome is the result of writing one decoded event.
type Outcome int

const (
	Inserted Outcome = iota + 1
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result carries the stored identity of a dispatched event.
type Result struct {
	Outcome Outcome
	EventID int64
}

// Dispatch inserts the raw event and, on a fresh insert, the one derived row for its type.
// A duplicate (tx hash, log index) skips derived work.
func Dispatch(ctx context.Context, tx storage.Tx, event model.DecodedEvent, blockTimestamp time.Time) (Result, error) {
	raw, err := model.NewRawEvent(event, blockTimestamp)
	if err != nil {
		return Result{}, err
	}

	id, inserted, err := tx.InsertEvent(ctx, &raw)
	if err != nil {
		return Result{}, err
	}
	if !inserted {
		return Result{Outcome: Duplicate}, nil
	}

	if err := writeDerived(ctx, tx, id, raw.BlockTimestamp, event.Data); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Inserted, EventID: id}, nil
}

func writeDerived(ctx context.Context, tx storage.Tx, id int64, ts time.Time, data model.EventData) error {
	switch d := data.(type) {
	case model.Deposit:
		return tx.InsertDeposit(ctx, id, ts, d)
	case model.Withdrawal:
		return tx.InsertWithdrawal(ctx, id, ts, d)
	case model.Deployment:
		return tx.InsertDeployment(ctx, id, ts, d)
	case model.Recall:
		return tx.InsertRecall(ctx, id, ts, d)
	case model.Loss:
		return tx.InsertLoss(ctx, id, ts, d)
	case model.OracleUpdate:
		return tx.InsertOracleUpdate(ctx, id, ts, d)
	case model.PerformanceFeeAccrual:
		return tx.InsertPerformanceFee(ctx, id, ts, d)
	case model.ManagementFeeAccrual:
		return tx.InsertManagementFee(ctx, id, ts, d)
	case model.CircuitBreakerTransition:
		return tx.InsertCircuitBreaker(ctx, id, ts, d)
	case model.OrderPlacement:
		return tx.InsertOrderPlacement(ctx, id, ts, d)
	default:
		// the decoder only produces the types above
		panic(fmt.Sprintf("dispatch: no writer for %T", data))
	}
}
