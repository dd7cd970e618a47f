package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
	"vaultIndexer/internal/storage/memory"
)

func decoded(index uint64, data model.EventData) model.DecodedEvent {
	return model.DecodedEvent{
		BlockNumber: 5,
		TxHash:      fmt.Sprintf("0x%064x", 1),
		LogIndex:    index,
		Address:     "0x1111111111111111111111111111111111111111",
		Kind:        data.Kind(),
		Data:        data,
	}
}

func TestDispatchRoutesEveryType(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ts := time.Unix(1700000000, 0)

	cases := []struct {
		data  model.EventData
		table string
	}{
		{model.Deposit{VaultID: 1, Amount: "1000", NewBalance: "1000"}, storage.TableDeposits},
		{model.Withdrawal{VaultID: 1, Amount: "1"}, storage.TableWithdrawals},
		{model.Deployment{VaultID: 1, DeploymentID: 2}, storage.TableDeployments},
		{model.Recall{VaultID: 1, DeploymentID: 2}, storage.TableRecalls},
		{model.Loss{VaultID: 1, Loss: "3"}, storage.TableLosses},
		{model.OracleUpdate{PegDeviation: -4}, storage.TableOracleUpdates},
		{model.PerformanceFeeAccrual{FeeAmount: "5"}, storage.TablePerformanceFees},
		{model.ManagementFeeAccrual{PeriodSeconds: 60}, storage.TableManagementFees},
		{model.CircuitBreakerTransition{Triggered: true}, storage.TableCircuitBreakers},
		{model.CircuitBreakerTransition{Triggered: false}, storage.TableCircuitBreakers},
		{model.OrderPlacement{Tick: -10}, storage.TableOrdersPlaced},
	}

	err := store.WithBlockTx(ctx, func(tx storage.Tx) error {
		for i, tc := range cases {
			res, err := Dispatch(ctx, tx, decoded(uint64(i), tc.data), ts)
			require.NoError(t, err)
			require.Equal(t, Inserted, res.Outcome)
			require.NotZero(t, res.EventID)
		}
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, len(cases), store.Count(storage.TableEvents))
	for _, table := range storage.DerivedTables {
		want := 0
		for _, tc := range cases {
			if tc.table == table {
				want++
			}
		}
		require.Equal(t, want, store.Count(table), table)
	}

	breakers := store.Rows(storage.TableCircuitBreakers)
	require.True(t, breakers[0].Data.(model.CircuitBreakerTransition).Triggered)
	require.False(t, breakers[1].Data.(model.CircuitBreakerTransition).Triggered)

	events := store.Events()
	require.Equal(t, model.KindCircuitBreakerTriggered, events[8].EventType)
	require.Equal(t, model.KindCircuitBreakerReset, events[9].EventType)
}

func TestDispatchDuplicateSkipsDerived(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	event := decoded(0, model.Deposit{VaultID: 1, Amount: "1000", NewBalance: "1000"})

	for i := 0; i < 2; i++ {
		err := store.WithBlockTx(ctx, func(tx storage.Tx) error {
			res, err := Dispatch(ctx, tx, event, time.Now())
			require.NoError(t, err)
			if i == 0 {
				require.Equal(t, Inserted, res.Outcome)
			} else {
				require.Equal(t, Duplicate, res.Outcome)
				require.Zero(t, res.EventID)
			}
			return nil
		})
		require.NoError(t, err)
	}

	require.Equal(t, 1, store.Count(storage.TableEvents))
	require.Equal(t, 1, store.Count(storage.TableDeposits))

	row := store.Rows(storage.TableDeposits)[0]
	require.Equal(t, store.Events()[0].ID, row.EventID)
	require.JSONEq(t, `{"vaultId":1,"token":"","amount":"1000","depositor":"","newBalance":"1000"}`, string(store.Events()[0].Payload))
}

func TestDispatchRejectsEmptyPayload(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	err := store.WithBlockTx(ctx, func(tx storage.Tx) error {
		_, err := Dispatch(ctx, tx, model.DecodedEvent{TxHash: "0x01"}, time.Now())
		return err
	})
	require.Error(t, err)
	require.Zero(t, store.Count(storage.TableEvents))
}
