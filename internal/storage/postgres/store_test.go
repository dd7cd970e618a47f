package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("INDEXER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("INDEXER_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Migrate(ctx, zap.NewNop()))

	_, err = store.pool.Exec(ctx, `TRUNCATE indexer_state, events, deposits, withdrawals, deployments, recalls,
		losses, oracle_updates, performance_fees, management_fees, circuit_breakers, orders_placed`)
	require.NoError(t, err)
	return store
}

func depositEvent() *model.RawEvent {
	return &model.RawEvent{
		BlockNumber:     12,
		BlockTimestamp:  time.Unix(1700000000, 0).UTC(),
		TxHash:          "0x00000000000000000000000000000000000000000000000000000000000000aa",
		LogIndex:        0,
		EventType:       model.KindDeposited,
		ContractAddress: "0x1111111111111111111111111111111111111111",
		Payload:         []byte(`{"vaultId":1,"amount":"1000"}`),
	}
}

func TestStoreDepositIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	deposit := model.Deposit{
		VaultID:    1,
		Token:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Amount:     "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		Depositor:  "0x2222222222222222222222222222222222222222",
		NewBalance: "1000",
	}

	write := func() bool {
		var inserted bool
		err := store.WithBlockTx(ctx, func(tx storage.Tx) error {
			event := depositEvent()
			id, ok, err := tx.InsertEvent(ctx, event)
			if err != nil || !ok {
				return err
			}
			inserted = true
			if err := tx.InsertDeposit(ctx, id, event.BlockTimestamp, deposit); err != nil {
				return err
			}
			return tx.AdvanceCursor(ctx, event.BlockNumber, time.Now())
		})
		require.NoError(t, err)
		return inserted
	}

	require.True(t, write())
	require.False(t, write())

	for table, want := range map[string]int64{storage.TableEvents: 1, storage.TableDeposits: 1} {
		n, err := store.CountRows(ctx, table)
		require.NoError(t, err)
		require.Equal(t, want, n, table)
	}

	var amount string
	require.NoError(t, store.pool.QueryRow(ctx, `SELECT amount::text FROM deposits`).Scan(&amount))
	require.Equal(t, deposit.Amount, amount)

	cursor, ok, err := store.LoadCursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(12), cursor.LastIndexedBlock)
}

func TestStoreRollbackAndMonotonicCursor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithBlockTx(ctx, func(tx storage.Tx) error {
		if _, _, err := tx.InsertEvent(ctx, depositEvent()); err != nil {
			return err
		}
		if err := tx.AdvanceCursor(ctx, 30, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, storage.ErrPersistence)

	n, err := store.CountRows(ctx, storage.TableEvents)
	require.NoError(t, err)
	require.Zero(t, n)
	_, ok, err := store.LoadCursor(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.AdvanceCursor(ctx, 20, time.Now()))
	require.NoError(t, store.AdvanceCursor(ctx, 15, time.Now()))
	cursor, _, err := store.LoadCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(20), cursor.LastIndexedBlock)

	_, err = store.CountRows(ctx, "pg_class")
	require.Error(t, err)
}
