/*
Package point provides the core point-ledger engine.

PURPOSE:
  This package contains the types and logic for tracking per-user point
  balances with a full, append-only history of every balance change.
  Clients query a balance, charge it (credit), use it (debit), and read
  the transaction history behind it.

KEY CONCEPTS IN THIS FILE (types.go):
  - UserBalance: A user's current point standing
  - TransactionRecord: An immutable history entry for one balance change
  - TransactionType: CHARGE (credit) or USE (debit)
  - Clock: Millisecond timestamp source (injectable for tests)

DESIGN PRINCIPLES:
  1. Immutability: History records are never modified after append
  2. Causality: A balance and its matching history record share one timestamp
  3. Integrality: Points are whole numbers; no fractional amounts exist
  4. Serialization: Mutations for one user never interleave (see engine.go)

USAGE:
  engine := point.NewEngine(store.NewMemory(), logger)
  balance, err := engine.Charge(ctx, point.UserID(1), 100)

SEE ALSO:
  - policy.go: Validation rules for charge/use amounts
  - engine.go: The mutation engine and its per-user critical section
  - store.go: Persistence interface the engine runs against
*/
package point

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// UserID identifies a user. Stable for the user's lifetime.
type UserID int64

// RecordID identifies a history record. Assigned by the store at append
// time, monotonically increasing across the whole store (not per user).
type RecordID int64

// =============================================================================
// TRANSACTION TYPE - Direction of a balance change
// =============================================================================

// TransactionType carries the direction of a transaction. Amounts are
// always positive magnitudes; the sign lives here, not in the amount.
type TransactionType string

const (
	// TxCharge credits points to a balance.
	TxCharge TransactionType = "CHARGE"

	// TxUse debits points from a balance. Never below zero.
	TxUse TransactionType = "USE"
)

// =============================================================================
// USER BALANCE - Current point standing for one user
// =============================================================================

// UserBalance is a user's current point standing.
//
// INVARIANTS:
//   - Points >= 0 after every mutation
//   - UpdatedAtMillis is monotonically non-decreasing per user
//
// Balances are materialized implicitly: the first read or write for an
// unknown user creates a zero-point record. There is no explicit
// "create user" operation and balances are never deleted.
type UserBalance struct {
	UserID          UserID
	Points          int64
	UpdatedAtMillis int64
}

// Empty returns the zero-point balance a store materializes on first
// access, stamped with the given creation time.
func Empty(id UserID, nowMillis int64) UserBalance {
	return UserBalance{UserID: id, Points: 0, UpdatedAtMillis: nowMillis}
}

// =============================================================================
// TRANSACTION RECORD - One immutable entry in a user's history
// =============================================================================

// TransactionRecord is one entry in a user's history. Created exactly
// once per successful charge/use, immutable thereafter.
//
// TimestampMillis equals the UpdatedAtMillis written to the UserBalance
// in the same logical operation; the two must not diverge.
type TransactionRecord struct {
	ID              RecordID
	UserID          UserID
	Amount          int64 // positive magnitude; direction is in Type
	Type            TransactionType
	TimestampMillis int64
}

// =============================================================================
// CLOCK - Millisecond timestamp source
// =============================================================================

// Clock supplies commit timestamps. The engine clamps results so that a
// user's UpdatedAtMillis never goes backwards, so the clock only has to
// be monotonically reasonable, not strictly monotonic.
type Clock interface {
	NowMillis() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }
