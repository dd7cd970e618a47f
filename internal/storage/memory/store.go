package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vaultIndexer/internal/model"
	"vaultIndexer/internal/storage"
)

// Row is a derived-table record.
type Row struct {
	EventID        int64
	BlockTimestamp time.Time
	Data           model.EventData
}

type eventKey struct {
	txHash   string
	logIndex uint64
}

// Store is an in-process storage.Store. Transactions are staged and applied on commit.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	events    map[eventKey]model.RawEvent
	rows      map[string][]Row
	derivedBy map[string]map[int64]struct{}
	cursor    *model.Cursor

	failInsert func(event *model.RawEvent) error
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		events:    make(map[eventKey]model.RawEvent),
		rows:      make(map[string][]Row),
		derivedBy: make(map[string]map[int64]struct{}),
	}
}

// FailInsert installs a hook that can reject raw event inserts.
func (s *Store) FailInsert(fn func(event *model.RawEvent) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsert = fn
}

func (s *Store) LoadCursor(_ context.Context) (model.Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return model.Cursor{}, false, nil
	}
	return *s.cursor, true, nil
}

func (s *Store) AdvanceCursor(_ context.Context, height uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(height, at)
	return nil
}

func (s *Store) advance(height uint64, at time.Time) {
	if s.cursor != nil && height <= s.cursor.LastIndexedBlock {
		return
	}
	s.cursor = &model.Cursor{LastIndexedBlock: height, LastIndexedAt: at.UTC()}
}

func (s *Store) WithBlockTx(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, nextID: s.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit: %w", storage.ErrPersistence, err)
	}

	for _, event := range tx.events {
		s.events[eventKey{event.TxHash, event.LogIndex}] = event
	}
	for _, staged := range tx.rows {
		s.rows[staged.table] = append(s.rows[staged.table], staged.row)
		ids, ok := s.derivedBy[staged.table]
		if !ok {
			ids = make(map[int64]struct{})
			s.derivedBy[staged.table] = ids
		}
		ids[staged.row.EventID] = struct{}{}
	}
	if tx.cursor != nil {
		s.advance(tx.cursor.LastIndexedBlock, tx.cursor.LastIndexedAt)
	}
	s.nextID = tx.nextID
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

// Count returns the number of committed rows in table.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table == storage.TableEvents {
		return len(s.events)
	}
	return len(s.rows[table])
}

// Events returns committed raw events ordered by id.
func (s *Store) Events() []model.RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RawEvent, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Rows returns a copy of the committed rows of a derived table.
func (s *Store) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows[table]...)
}

type stagedRow struct {
	table string
	row   Row
}

type memTx struct {
	store  *Store
	nextID int64
	events []model.RawEvent
	rows   []stagedRow
	cursor *model.Cursor
}

func (t *memTx) InsertEvent(_ context.Context, event *model.RawEvent) (int64, bool, error) {
	if t.store.failInsert != nil {
		if err := t.store.failInsert(event); err != nil {
			return 0, false, fmt.Errorf("%w: insert event: %w", storage.ErrPersistence, err)
		}
	}

	key := eventKey{event.TxHash, event.LogIndex}
	if _, ok := t.store.events[key]; ok {
		return 0, false, nil
	}
	for _, pending := range t.events {
		if pending.TxHash == key.txHash && pending.LogIndex == key.logIndex {
			return 0, false, nil
		}
	}

	t.nextID++
	stored := *event
	stored.ID = t.nextID
	t.events = append(t.events, stored)
	event.ID = stored.ID
	return stored.ID, true, nil
}

func (t *memTx) insertRow(table string, eventID int64, ts time.Time, data model.EventData) error {
	if _, ok := t.store.derivedBy[table][eventID]; ok {
		return fmt.Errorf("%w: %s: duplicate event_id %d", storage.ErrPersistence, table, eventID)
	}
	for _, staged := range t.rows {
		if staged.table == table && staged.row.EventID == eventID {
			return fmt.Errorf("%w: %s: duplicate event_id %d", storage.ErrPersistence, table, eventID)
		}
	}
	t.rows = append(t.rows, stagedRow{table: table, row: Row{EventID: eventID, BlockTimestamp: ts.UTC(), Data: data}})
	return nil
}

func (t *memTx) InsertDeposit(_ context.Context, eventID int64, ts time.Time, d model.Deposit) error {
	return t.insertRow(storage.TableDeposits, eventID, ts, d)
}

func (t *memTx) InsertWithdrawal(_ context.Context, eventID int64, ts time.Time, w model.Withdrawal) error {
	return t.insertRow(storage.TableWithdrawals, eventID, ts, w)
}

func (t *memTx) InsertDeployment(_ context.Context, eventID int64, ts time.Time, d model.Deployment) error {
	return t.insertRow(storage.TableDeployments, eventID, ts, d)
}

func (t *memTx) InsertRecall(_ context.Context, eventID int64, ts time.Time, r model.Recall) error {
	return t.insertRow(storage.TableRecalls, eventID, ts, r)
}

func (t *memTx) InsertLoss(_ context.Context, eventID int64, ts time.Time, l model.Loss) error {
	return t.insertRow(storage.TableLosses, eventID, ts, l)
}

func (t *memTx) InsertOracleUpdate(_ context.Context, eventID int64, ts time.Time, u model.OracleUpdate) error {
	return t.insertRow(storage.TableOracleUpdates, eventID, ts, u)
}

func (t *memTx) InsertPerformanceFee(_ context.Context, eventID int64, ts time.Time, f model.PerformanceFeeAccrual) error {
	return t.insertRow(storage.TablePerformanceFees, eventID, ts, f)
}

func (t *memTx) InsertManagementFee(_ context.Context, eventID int64, ts time.Time, f model.ManagementFeeAccrual) error {
	return t.insertRow(storage.TableManagementFees, eventID, ts, f)
}

func (t *memTx) InsertCircuitBreaker(_ context.Context, eventID int64, ts time.Time, c model.CircuitBreakerTransition) error {
	return t.insertRow(storage.TableCircuitBreakers, eventID, ts, c)
}

func (t *memTx) InsertOrderPlacement(_ context.Context, eventID int64, ts time.Time, o model.OrderPlacement) error {
	return t.insertRow(storage.TableOrdersPlaced, eventID, ts, o)
}

func (t *memTx) AdvanceCursor(_ context.Context, height uint64, at time.Time) error {
	if t.cursor != nil && height <= t.cursor.LastIndexedBlock {
		return nil
	}
	t.cursor = &model.Cursor{LastIndexedBlock: height, LastIndexedAt: at}
	return nil
}
