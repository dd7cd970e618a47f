package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"vaultIndexer/internal/chain"
	"vaultIndexer/internal/contracts"
	"vaultIndexer/internal/decoder"
	"vaultIndexer/internal/model"
	"vaultIndexer/internal/registry"
	"vaultIndexer/internal/storage"
	"vaultIndexer/internal/storage/memory"
)

var (
	vaultAddr = common.HexToAddress(contracts.DefaultSpecs()[0].Address)
	riskAddr  = common.HexToAddress(contracts.DefaultSpecs()[1].Address)
	tokenAddr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	userAddr  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fakeReader struct {
	mu         sync.Mutex
	head       uint64
	logs       []types.Log
	headErr    error
	logsErr    error
	failTS     map[uint64]error
	tsCalls    int
	rangeCalls int
}

func (f *fakeReader) CurrentHeight(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, fmt.Errorf("%w: %w", chain.ErrChainUnavailable, f.headErr)
	}
	return f.head, nil
}

func (f *fakeReader) BlockTimestamp(_ context.Context, height uint64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tsCalls++
	if err := f.failTS[height]; err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", chain.ErrChainUnavailable, err)
	}
	return time.Unix(int64(1700000000+height*12), 0).UTC(), nil
}

func (f *fakeReader) LogsInRange(_ context.Context, from, to uint64, addresses []common.Address) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls++
	if f.logsErr != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrChainUnavailable, f.logsErr)
	}
	allowed := make(map[common.Address]struct{}, len(addresses))
	for _, a := range addresses {
		allowed[a] = struct{}{}
	}
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if _, ok := allowed[log.Address]; !ok {
			continue
		}
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber == out[j].BlockNumber {
			return out[i].Index < out[j].Index
		}
		return out[i].BlockNumber < out[j].BlockNumber
	})
	return out, nil
}

type fakeClock struct {
	now    time.Time
	sleeps int
	limit  int
	cancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

// After fires immediately until limit sleeps have happened, then stops the loop.
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.sleeps++
	c.now = c.now.Add(d)
	if c.cancel != nil && c.sleeps >= c.limit {
		c.cancel()
		return nil
	}
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type recordingObserver struct {
	outcomes []Outcome
}

func (o *recordingObserver) Observe(out Outcome) { o.outcomes = append(o.outcomes, out) }

func (o *recordingObserver) count(status OutcomeStatus) int {
	n := 0
	for _, out := range o.outcomes {
		if out.Status == status {
			n++
		}
	}
	return n
}

type harness struct {
	reader   *fakeReader
	store    *memory.Store
	observer *recordingObserver
	runner   *Runner
}

func newHarness(t *testing.T, start uint64, logs ...types.Log) *harness {
	t.Helper()
	resolved, err := contracts.Resolve(contracts.DefaultSpecs())
	require.NoError(t, err)
	reg, err := registry.New(resolved)
	require.NoError(t, err)

	h := &harness{
		reader:   &fakeReader{logs: logs, failTS: map[uint64]error{}},
		store:    memory.New(),
		observer: &recordingObserver{},
	}
	h.runner, err = NewRunner(RunConfig{
		StartBlock:   start,
		PollInterval: 5 * time.Second,
		BatchSize:    10,
		BlockTimeout: time.Second,
	}, Deps{
		Registry: reg,
		Decoder:  decoder.New(reg),
		Reader:   h.reader,
		Store:    h.store,
	}, &fakeClock{now: time.Unix(1800000000, 0)}, h.observer, nil)
	require.NoError(t, err)
	return h
}

func (h *harness) cursor(t *testing.T) uint64 {
	t.Helper()
	c, ok, err := h.store.LoadCursor(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	return c.LastIndexedBlock
}

func (h *harness) counts() map[string]int {
	out := map[string]int{storage.TableEvents: h.store.Count(storage.TableEvents)}
	for _, table := range storage.DerivedTables {
		out[table] = h.store.Count(table)
	}
	return out
}

func depositLog(t *testing.T, block uint64, index uint, vaultID int64, amount int64) types.Log {
	t.Helper()
	parsed, err := contracts.BuiltinABI(contracts.TreasuryVault)
	require.NoError(t, err)
	event := parsed.Events["Deposited"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(amount), big.NewInt(amount))
	require.NoError(t, err)
	return types.Log{
		Address: vaultAddr,
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(big.NewInt(vaultID)),
			decoder.TopicFromAddress(tokenAddr),
			decoder.TopicFromAddress(userAddr),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
		Index:       index,
	}
}

func breakerLog(t *testing.T, block uint64, index uint) types.Log {
	t.Helper()
	parsed, err := contracts.BuiltinABI(contracts.RiskController)
	require.NoError(t, err)
	event := parsed.Events["CircuitBreakerTriggered"]
	return types.Log{
		Address:     riskAddr,
		Topics:      []common.Hash{event.ID, common.HexToHash("0x01"), decoder.TopicFromAddress(userAddr)},
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
		Index:       index,
	}
}

func TestCycleDepositScenario(t *testing.T) {
	h := newHarness(t, 0, depositLog(t, 1, 0, 1, 1000))
	h.reader.head = 1
	ctx := context.Background()

	stats, err := h.runner.Cycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Inserted)
	require.Equal(t, uint64(1), h.cursor(t))

	events := h.store.Events()
	require.Len(t, events, 1)
	require.Equal(t, model.KindDeposited, events[0].EventType)
	require.Equal(t, time.Unix(1700000012, 0).UTC(), events[0].BlockTimestamp)

	rows := h.store.Rows(storage.TableDeposits)
	require.Len(t, rows, 1)
	deposit := rows[0].Data.(model.Deposit)
	require.Equal(t, uint64(1), deposit.VaultID)
	require.Equal(t, tokenAddr.Hex(), deposit.Token)
	require.Equal(t, "1000", deposit.Amount)
	require.Equal(t, "1000", deposit.NewBalance)
}

func TestReindexingIsIdempotent(t *testing.T) {
	logs := []types.Log{depositLog(t, 3, 0, 1, 10), depositLog(t, 3, 1, 2, 20), breakerLog(t, 4, 0)}
	h := newHarness(t, 2, logs...)
	h.reader.head = 4
	ctx := context.Background()

	_, err := h.runner.Cycle(ctx)
	require.NoError(t, err)
	before := h.counts()
	require.Equal(t, 3, before[storage.TableEvents])
	require.Equal(t, 2, before[storage.TableDeposits])
	require.Equal(t, 1, before[storage.TableCircuitBreakers])

	// hiding the cursor replays blocks 3 and 4 as after a crash before the cursor write
	h.runner.deps.Store = &cursorlessStore{Store: h.store}
	stats, err := h.runner.Cycle(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Inserted)
	require.Equal(t, 3, stats.Duplicates)
	require.Equal(t, 3, h.observer.count(OutcomeDuplicate))
	require.Equal(t, before, h.counts())
}

// cursorlessStore hides the stored cursor, as after a crash between commit and cursor write.
type cursorlessStore struct {
	*memory.Store
}

func (s *cursorlessStore) LoadCursor(context.Context) (model.Cursor, bool, error) {
	return model.Cursor{}, false, nil
}

func TestCompletenessAcrossRanges(t *testing.T) {
	var logs []types.Log
	for block := uint64(1); block <= 35; block += 2 {
		logs = append(logs, depositLog(t, block, 0, int64(block), 1))
	}
	h := newHarness(t, 0, logs...)
	h.reader.head = 35

	stats, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(logs), stats.Inserted)
	require.Equal(t, len(logs), h.store.Count(storage.TableEvents))
	require.Equal(t, len(logs), h.store.Count(storage.TableDeposits))
	require.Equal(t, uint64(35), h.cursor(t))
	require.Equal(t, 4, h.reader.rangeCalls)
	require.Equal(t, len(logs), h.reader.tsCalls)
}

func TestEmptyRangeAdvancesCursor(t *testing.T) {
	h := newHarness(t, 100)
	h.reader.head = 120

	_, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(120), h.cursor(t))
	require.Zero(t, h.reader.tsCalls)

	h.reader.head = 110
	stats, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(120), stats.Cursor)
	require.Equal(t, uint64(120), h.cursor(t))
}

func TestPersistenceFailureIsolatesBlock(t *testing.T) {
	logs := []types.Log{depositLog(t, 11, 0, 1, 10), depositLog(t, 12, 0, 2, 20), depositLog(t, 12, 1, 3, 30)}
	h := newHarness(t, 10, logs...)
	h.reader.head = 15
	ctx := context.Background()

	h.store.FailInsert(func(event *model.RawEvent) error {
		if event.BlockNumber == 12 && event.LogIndex == 1 {
			return errors.New("disk full")
		}
		return nil
	})

	_, err := h.runner.Cycle(ctx)
	require.ErrorIs(t, err, storage.ErrPersistence)
	require.Equal(t, uint64(11), h.cursor(t))
	require.Equal(t, 1, h.store.Count(storage.TableEvents))
	require.Equal(t, 1, h.observer.count(OutcomeInserted))

	h.store.FailInsert(nil)
	stats, err := h.runner.Cycle(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(11), stats.From)
	require.Equal(t, 2, stats.Inserted)
	require.Zero(t, stats.Duplicates)
	require.Equal(t, uint64(15), h.cursor(t))
	require.Equal(t, 3, h.store.Count(storage.TableDeposits))
}

func TestChainFailureLeavesCursor(t *testing.T) {
	logs := []types.Log{depositLog(t, 21, 0, 1, 10), depositLog(t, 23, 0, 2, 20)}
	h := newHarness(t, 20, logs...)
	h.reader.head = 25
	h.reader.failTS[23] = errors.New("timeout")
	ctx := context.Background()

	_, err := h.runner.Cycle(ctx)
	require.ErrorIs(t, err, chain.ErrChainUnavailable)
	require.Equal(t, uint64(22), h.cursor(t))

	delete(h.reader.failTS, 23)
	_, err = h.runner.Cycle(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(25), h.cursor(t))
	require.Equal(t, 2, h.store.Count(storage.TableDeposits))

	h.reader.headErr = errors.New("connection refused")
	_, err = h.runner.Cycle(ctx)
	require.ErrorIs(t, err, chain.ErrChainUnavailable)
	require.Equal(t, uint64(25), h.cursor(t))
}

func TestUnrecognizedLogsWriteNothing(t *testing.T) {
	stranger := depositLog(t, 31, 0, 1, 10)
	stranger.Address = common.HexToAddress("0x9999999999999999999999999999999999999999")

	unknownTopic := depositLog(t, 31, 1, 1, 10)
	unknownTopic.Topics[0] = common.HexToHash("0xdeadbeef")

	misplaced := breakerLog(t, 31, 2)
	misplaced.Address = vaultAddr

	h := newHarness(t, 30, stranger, unknownTopic, misplaced)
	h.reader.head = 31

	stats, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Unrecognized)
	for table, n := range h.counts() {
		require.Zero(t, n, table)
	}
	require.Zero(t, h.reader.tsCalls)
	require.Equal(t, uint64(31), h.cursor(t))
}

func TestDecodeFailureSkipsLogOnly(t *testing.T) {
	bad := depositLog(t, 41, 0, 1, 10)
	bad.Data = bad.Data[:16]
	good := depositLog(t, 41, 1, 2, 20)

	h := newHarness(t, 40, bad, good)
	h.reader.head = 41

	stats, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 1, stats.Inserted)
	require.Equal(t, 1, h.store.Count(storage.TableDeposits))

	var failure Outcome
	for _, out := range h.observer.outcomes {
		if out.Status == OutcomeDecodeFailure {
			failure = out
		}
	}
	require.ErrorIs(t, failure.Err, decoder.ErrDecodeFailure)
	require.Equal(t, uint64(41), failure.BlockNumber)
	require.Equal(t, "Deposited", failure.EventName)
}

func TestRunPollsUntilCancelled(t *testing.T) {
	h := newHarness(t, 50, depositLog(t, 52, 0, 1, 10))
	h.reader.head = 52
	h.reader.logsErr = errors.New("rate limited")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: time.Unix(1800000000, 0), limit: 3, cancel: cancel}
	h.runner.clock = clock

	done := make(chan error, 1)
	go func() { done <- h.runner.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("runner did not stop")
	}
	require.Equal(t, 3, clock.sleeps)
	require.Zero(t, h.store.Count(storage.TableEvents))

	h.reader.logsErr = nil
	_, err := h.runner.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, h.store.Count(storage.TableEvents))
}

func TestCycleStopsBetweenBlocks(t *testing.T) {
	h := newHarness(t, 60, depositLog(t, 61, 0, 1, 10), depositLog(t, 62, 0, 2, 20))
	h.reader.head = 62

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.runner.Cycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, h.store.Count(storage.TableEvents))
	_, ok, _ := h.store.LoadCursor(context.Background())
	require.False(t, ok)
}

func TestNewRunnerValidates(t *testing.T) {
	_, err := NewRunner(RunConfig{BatchSize: 1, PollInterval: time.Second}, Deps{}, nil, nil, nil)
	require.Error(t, err)
}
