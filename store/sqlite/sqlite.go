/*
Package sqlite provides a SQLite-backed implementation of point.Store.

PURPOSE:
  Durable variant of the ledger store. The engine's correctness never
  depends on it - the same narrow contract is satisfied by the in-memory
  store - but it lets a deployment keep balances and history across
  restarts.

KEY TABLES:
  user_points:   Current balance per user (one row per user)
  point_history: Immutable log of all balance changes

APPEND-ONLY ENFORCEMENT:
  point_history sees INSERTs only. No UPDATE, no DELETE. Record ids come
  from an AUTOINCREMENT primary key, so they increase monotonically
  across the whole store and are never reused.

COMPARE-AND-WRITE:
  Implemented as a guarded UPDATE:
    UPDATE user_points SET ... WHERE user_id = ? AND points = ?
  Zero rows affected means the stored value moved under the caller, and
  the store reports ErrConcurrentModification.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  engine := point.NewEngine(st, logger)

SEE ALSO:
  - point/store.go: Interface definition
  - point/store/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/point-ledger/point"
)

// Store implements point.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // sqlite allows one writer at a time

	nowMillis func() int64
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:        db,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewWithClock creates a store that stamps materialized balances with
// the given clock. Tests use this for determinism.
func NewWithClock(dbPath string, clock point.Clock) (*Store, error) {
	st, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	st.nowMillis = clock.NowMillis
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Current balance per user
	CREATE TABLE IF NOT EXISTS user_points (
		user_id INTEGER PRIMARY KEY,
		points INTEGER NOT NULL CHECK (points >= 0),
		updated_at_millis INTEGER NOT NULL
	);

	-- Immutable history of all balance changes (append-only)
	CREATE TABLE IF NOT EXISTS point_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		amount INTEGER NOT NULL CHECK (amount > 0),
		tx_type TEXT NOT NULL CHECK (tx_type IN ('CHARGE', 'USE')),
		timestamp_millis INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_point_history_user
		ON point_history(user_id, id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BALANCE OPERATIONS
// =============================================================================

// Read returns the current balance, materializing a zero-point row on
// first access.
func (s *Store) Read(ctx context.Context, id point.UserID) (point.UserBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx, id)
}

func (s *Store) readLocked(ctx context.Context, id point.UserID) (point.UserBalance, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_points (user_id, points, updated_at_millis) VALUES (?, 0, ?)`,
		int64(id), s.nowMillis(),
	)
	if err != nil {
		return point.UserBalance{}, storageErr("materialize balance", err)
	}

	var b point.UserBalance
	var uid int64
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, points, updated_at_millis FROM user_points WHERE user_id = ?`,
		int64(id),
	).Scan(&uid, &b.Points, &b.UpdatedAtMillis)
	if err != nil {
		return point.UserBalance{}, storageErr("read balance", err)
	}
	b.UserID = point.UserID(uid)
	return b, nil
}

// CompareAndWrite replaces the balance only if the stored points still
// equal expectedPoints.
func (s *Store) CompareAndWrite(ctx context.Context, id point.UserID, expectedPoints, newPoints, newTimestampMillis int64) (point.UserBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Make sure the row exists so the guarded UPDATE can match it.
	if _, err := s.readLocked(ctx, id); err != nil {
		return point.UserBalance{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE user_points SET points = ?, updated_at_millis = ? WHERE user_id = ? AND points = ?`,
		newPoints, newTimestampMillis, int64(id), expectedPoints,
	)
	if err != nil {
		return point.UserBalance{}, storageErr("write balance", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return point.UserBalance{}, storageErr("write balance", err)
	}
	if affected == 0 {
		return point.UserBalance{}, point.ErrConcurrentModification
	}

	return point.UserBalance{
		UserID:          id,
		Points:          newPoints,
		UpdatedAtMillis: newTimestampMillis,
	}, nil
}

// =============================================================================
// HISTORY OPERATIONS (append-only)
// =============================================================================

// AppendHistory inserts the record and returns it with its assigned id.
func (s *Store) AppendHistory(ctx context.Context, rec point.TransactionRecord) (point.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO point_history (user_id, amount, tx_type, timestamp_millis) VALUES (?, ?, ?, ?)`,
		int64(rec.UserID), rec.Amount, string(rec.Type), rec.TimestampMillis,
	)
	if err != nil {
		return point.TransactionRecord{}, storageErr("append history", err)
	}

	lastID, err := res.LastInsertId()
	if err != nil {
		return point.TransactionRecord{}, storageErr("append history", err)
	}
	rec.ID = point.RecordID(lastID)
	return rec, nil
}

// ReadHistory returns records in insertion order.
func (s *Store) ReadHistory(ctx context.Context, id point.UserID) ([]point.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, tx_type, timestamp_millis
		 FROM point_history WHERE user_id = ? ORDER BY id ASC`,
		int64(id),
	)
	if err != nil {
		return nil, storageErr("read history", err)
	}
	defer rows.Close()

	records := []point.TransactionRecord{}
	for rows.Next() {
		var rec point.TransactionRecord
		var recID, uid int64
		var txType string
		if err := rows.Scan(&recID, &uid, &rec.Amount, &txType, &rec.TimestampMillis); err != nil {
			return nil, storageErr("read history", err)
		}
		rec.ID = point.RecordID(recID)
		rec.UserID = point.UserID(uid)
		rec.Type = point.TransactionType(txType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read history", err)
	}
	return records, nil
}

// storageErr keeps unexpected persistence failures distinct from the
// domain errors while preserving the underlying cause in the message.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", point.ErrStorage, op, err)
}

// Compile-time check that Store implements point.Store
var _ point.Store = (*Store)(nil)
