package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

// blockTx implements storage.Tx on a pgx transaction.
type blockTx struct {
	tx pgx.Tx
}

var _ storage.Tx = (*blockTx)(nil)

// InsertEvent relies on the (transaction_hash, log_index) constraint: a conflicting row
// returns no id and reports inserted=false.
func (t *blockTx) InsertEvent(ctx context.Context, event *model.RawEvent) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO events (
			block_number, block_timestamp, transaction_hash, log_index, event_type, contract_address, event_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_hash, log_index) DO NOTHING
		RETURNING id
	`,
		int64(event.BlockNumber),
		event.BlockTimestamp,
		event.TxHash,
		int64(event.LogIndex),
		string(event.EventType),
		event.ContractAddress,
		event.Payload,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, persistErr("insert event", err)
	}
	event.ID = id
	return id, true, nil
}

func (t *blockTx) InsertDeposit(ctx context.Context, eventID int64, ts time.Time, d model.Deposit) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO deposits (event_id, vault_id, token, amount, depositor, new_balance, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, eventID, int64(d.VaultID), d.Token, d.Amount, d.Depositor, d.NewBalance, ts)
	return persistErr("insert deposit", err)
}

func (t *blockTx) InsertWithdrawal(ctx context.Context, eventID int64, ts time.Time, w model.Withdrawal) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO withdrawals (event_id, vault_id, token, amount, recipient, new_balance, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, eventID, int64(w.VaultID), w.Token, w.Amount, w.Recipient, w.NewBalance, ts)
	return persistErr("insert withdrawal", err)
}

func (t *blockTx) InsertDeployment(ctx context.Context, eventID int64, ts time.Time, d model.Deployment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO deployments (event_id, vault_id, deployment_id, strategy, token, amount, pair_id, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, eventID, int64(d.VaultID), int64(d.DeploymentID), d.Strategy, d.Token, d.Amount, d.PairID, ts)
	return persistErr("insert deployment", err)
}

func (t *blockTx) InsertRecall(ctx context.Context, eventID int64, ts time.Time, r model.Recall) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO recalls (event_id, vault_id, deployment_id, returned_amount, block_timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, eventID, int64(r.VaultID), int64(r.DeploymentID), r.ReturnedAmount, ts)
	return persistErr("insert recall", err)
}

func (t *blockTx) InsertLoss(ctx context.Context, eventID int64, ts time.Time, l model.Loss) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO losses (event_id, vault_id, deployment_id, token, deployed_amount, returned_amount, loss, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, eventID, int64(l.VaultID), int64(l.DeploymentID), l.Token, l.DeployedAmount, l.ReturnedAmount, l.Loss, ts)
	return persistErr("insert loss", err)
}

func (t *blockTx) InsertOracleUpdate(ctx context.Context, eventID int64, ts time.Time, u model.OracleUpdate) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO oracle_updates (
			event_id, pair_id, peg_deviation, orderbook_depth_bid, orderbook_depth_ask,
			signal_timestamp, nonce, updated_at, block_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, eventID, u.PairID, u.PegDeviation, u.OrderbookDepthBid, u.OrderbookDepthAsk,
		u.SignalTimestamp, u.Nonce, u.UpdatedAt, ts)
	return persistErr("insert oracle update", err)
}

func (t *blockTx) InsertPerformanceFee(ctx context.Context, eventID int64, ts time.Time, f model.PerformanceFeeAccrual) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO performance_fees (event_id, vault_id, token, yield_amount, fee_amount, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, eventID, int64(f.VaultID), f.Token, f.YieldAmount, f.FeeAmount, ts)
	return persistErr("insert performance fee", err)
}

func (t *blockTx) InsertManagementFee(ctx context.Context, eventID int64, ts time.Time, f model.ManagementFeeAccrual) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO management_fees (event_id, vault_id, token, fee_amount, period_seconds, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, eventID, int64(f.VaultID), f.Token, f.FeeAmount, int64(f.PeriodSeconds), ts)
	return persistErr("insert management fee", err)
}

func (t *blockTx) InsertCircuitBreaker(ctx context.Context, eventID int64, ts time.Time, c model.CircuitBreakerTransition) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO circuit_breakers (event_id, pair_id, triggered, triggered_by, block_timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, eventID, c.PairID, c.Triggered, c.Actor, ts)
	return persistErr("insert circuit breaker", err)
}

func (t *blockTx) InsertOrderPlacement(ctx context.Context, eventID int64, ts time.Time, o model.OrderPlacement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders_placed (event_id, pair_id, order_id, tick, amount, is_bid, is_flip, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, eventID, o.PairID, o.OrderID, o.Tick, o.Amount, o.IsBid, o.IsFlip, ts)
	return persistErr("insert order placement", err)
}

func (t *blockTx) AdvanceCursor(ctx context.Context, height uint64, at time.Time) error {
	return advanceCursor(ctx, t.tx, height, at)
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", storage.ErrPersistence, op, err)
}
