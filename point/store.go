/*
store.go - Persistence interface for balances and history

PURPOSE:
  Defines the narrow contract between the engine and whatever holds the
  ledger. The store owns both collections: current balances keyed by
  user id, and the ordered history of records per user. Different
  implementations can use memory or SQLite.

HISTORY CONTRACT:
  AppendHistory is APPEND-ONLY. No update, no delete. The store assigns
  the RecordID at append time, monotonically increasing across the whole
  store, and never reorders or merges entries.

BALANCE CONTRACT:
  Read materializes a zero-point balance on first access - there is no
  "not found" for a well-formed id. CompareAndWrite replaces the balance
  only if the stored point value still equals the expected one, so a
  caller that read, computed, and writes back cannot silently lose a
  concurrent update.

IMPLEMENTATIONS:
  - point/store/memory.go: In-memory (the engine's assumed deployment)
  - store/sqlite/sqlite.go: SQLite-backed

SEE ALSO:
  - engine.go: The only writer; holds a per-user lock around read+write
  - history.go: Read-only consumer of ReadHistory
*/
package point

import "context"

// Store handles persistence of balances and history records.
//
// Each method is individually atomic. Cross-method atomicity (balance
// write + matching history append) is the engine's job: it performs
// both inside a per-user critical section.
type Store interface {
	// Read returns the current balance for a user, materializing a
	// zero-point record on first access. Never fails for a well-formed id.
	Read(ctx context.Context, id UserID) (UserBalance, error)

	// CompareAndWrite atomically replaces the balance only if the stored
	// points still equal expectedPoints. Returns ErrConcurrentModification
	// if they do not. On success returns the new balance.
	CompareAndWrite(ctx context.Context, id UserID, expectedPoints, newPoints, newTimestampMillis int64) (UserBalance, error)

	// AppendHistory atomically assigns a RecordID and appends the record.
	// Always succeeds once the write path is reached.
	AppendHistory(ctx context.Context, rec TransactionRecord) (TransactionRecord, error)

	// ReadHistory returns a user's records in insertion order. A user
	// with no history yields an empty slice, not an error.
	ReadHistory(ctx context.Context, id UserID) ([]TransactionRecord, error)
}
