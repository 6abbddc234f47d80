/*
engine.go - The point-balance mutation engine

PURPOSE:
  Orchestrates get-balance, charge, and use against the Store using the
  point policy. This is the only component with real correctness
  hazards: lost updates, double-spends, and charge/use racing against
  each other for one user must be structurally impossible, while
  operations on different users proceed without contention.

CONCURRENCY MODEL:
  Mutations for a single user are strictly serialized: the engine holds
  an exclusive lock keyed by user id for the duration of
  "read balance -> validate -> write balance -> append history".
  Locks are created lazily on first access and retained for the life of
  the process; there is deliberately no global lock, so unrelated users
  never block one another.

  Reads (GetBalance, GetHistory) do not take the lock. They may observe
  state from just before or just after a concurrent mutation, but once a
  mutation has returned to its caller, its history record is in place -
  the record is appended before the critical section releases.

WHY LOCKING, NOT OPTIMISTIC RETRY:
  The store's CompareAndWrite would support an optimistic loop, but that
  leaks ErrConcurrentModification into the public contract for callers
  to handle. With the per-user lock, engine callers cannot race each
  other; the engine still retries a bounded number of times in case the
  store has writers outside this process, and only then surfaces the
  conflict.

TIMESTAMPS:
  Commit timestamps come from the injected Clock, clamped so a user's
  UpdatedAtMillis never decreases. The history record written by an
  operation carries the exact same timestamp as the balance it commits.

SEE ALSO:
  - policy.go: The validation step
  - history.go: The read path for histories
  - store.go: The persistence contract all of this runs against
*/
package point

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// maxWriteAttempts bounds the internal compare-and-write retry loop.
const maxWriteAttempts = 3

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns the per-user atomicity guarantee and the balance-then-
// history ordering guarantee. It never caches balances across calls;
// every mutation re-reads current state before validating.
type Engine struct {
	store   Store
	clock   Clock
	log     zerolog.Logger
	history *HistoryReader

	locks userLocks
}

// NewEngine creates an engine over the given store with the system clock.
func NewEngine(store Store, log zerolog.Logger) *Engine {
	return NewEngineWithClock(store, log, SystemClock{})
}

// NewEngineWithClock creates an engine with an explicit clock.
// Tests use this to make commit timestamps deterministic.
func NewEngineWithClock(store Store, log zerolog.Logger, clock Clock) *Engine {
	return &Engine{
		store:   store,
		clock:   clock,
		log:     log,
		history: NewHistoryReader(store),
	}
}

// =============================================================================
// READ OPERATIONS - No lock, straight through to the store
// =============================================================================

// GetBalance returns the user's current balance, materializing a
// zero-point record on first access. No validation needed.
func (e *Engine) GetBalance(ctx context.Context, id UserID) (UserBalance, error) {
	return e.store.Read(ctx, id)
}

// GetHistory returns the user's transaction history in insertion order.
func (e *Engine) GetHistory(ctx context.Context, id UserID) ([]TransactionRecord, error) {
	return e.history.History(ctx, id)
}

// =============================================================================
// MUTATIONS - Serialized per user
// =============================================================================

// Charge credits amount points to the user's balance and appends a
// CHARGE history record with the same commit timestamp.
// Returns ErrInvalidAmount (via InvalidAmountError) for amounts below
// MinimumCharge or amounts that would push the balance past the int64
// range; a failed charge mutates nothing.
func (e *Engine) Charge(ctx context.Context, id UserID, amount int64) (UserBalance, error) {
	if err := ValidateCharge(id, amount); err != nil {
		return UserBalance{}, err
	}

	balance, err := e.transition(ctx, id, TxCharge, amount, func(current UserBalance) (int64, error) {
		// The minimum-amount rule passed statically; the capacity rule
		// needs the freshly read balance.
		if err := ValidateChargeCapacity(current, amount); err != nil {
			return 0, err
		}
		return current.Points + amount, nil
	})
	if err != nil {
		return UserBalance{}, err
	}

	e.log.Debug().
		Int64("user_id", int64(id)).
		Int64("amount", amount).
		Int64("points", balance.Points).
		Msg("charge committed")
	return balance, nil
}

// Use debits amount points from the user's balance and appends a USE
// history record with the same commit timestamp.
// Returns ErrInvalidAmount for zero/negative amounts and
// ErrInsufficientPoints when amount exceeds the balance; a failed use
// mutates nothing. Using exactly the full balance succeeds.
func (e *Engine) Use(ctx context.Context, id UserID, amount int64) (UserBalance, error) {
	balance, err := e.transition(ctx, id, TxUse, amount, func(current UserBalance) (int64, error) {
		if err := ValidateUse(current, amount); err != nil {
			return 0, err
		}
		return current.Points - amount, nil
	})
	if err != nil {
		return UserBalance{}, err
	}

	e.log.Debug().
		Int64("user_id", int64(id)).
		Int64("amount", amount).
		Int64("points", balance.Points).
		Msg("use committed")
	return balance, nil
}

// transition runs one read -> validate -> write -> append step inside
// the user's critical section. next computes the target point value
// from a freshly read balance, or rejects the request.
//
// The new balance is an explicit target derived from the read, not a
// signed delta applied blindly: under the per-user lock the read and
// the compare-and-write see the same stored value, so the CAS cannot
// fail against another engine caller.
func (e *Engine) transition(ctx context.Context, id UserID, txType TransactionType, amount int64, next func(UserBalance) (int64, error)) (UserBalance, error) {
	// The critical section is the atomicity boundary: once the balance
	// write lands, the history append must land too. Caller cancellation
	// must not split the pair, so the commit ignores it.
	ctx = context.WithoutCancel(ctx)

	unlock := e.locks.lock(id)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current, err := e.store.Read(ctx, id)
		if err != nil {
			return UserBalance{}, err
		}

		newPoints, err := next(current)
		if err != nil {
			// Validation failure: no mutation, no history append.
			return UserBalance{}, err
		}

		ts := e.clock.NowMillis()
		if ts < current.UpdatedAtMillis {
			ts = current.UpdatedAtMillis
		}

		updated, err := e.store.CompareAndWrite(ctx, id, current.Points, newPoints, ts)
		if errors.Is(err, ErrConcurrentModification) {
			// Only possible if something outside this engine writes the
			// store. Re-read and re-validate against the fresh state.
			lastErr = err
			e.log.Warn().
				Int64("user_id", int64(id)).
				Int("attempt", attempt+1).
				Msg("compare-and-write conflict, retrying")
			continue
		}
		if err != nil {
			return UserBalance{}, err
		}

		// Append the matching history record before releasing the
		// section. The balance commit is never acknowledged without it.
		if _, err := e.store.AppendHistory(ctx, TransactionRecord{
			UserID:          id,
			Amount:          amount,
			Type:            txType,
			TimestampMillis: updated.UpdatedAtMillis,
		}); err != nil {
			return UserBalance{}, err
		}

		return updated, nil
	}

	return UserBalance{}, lastErr
}

// =============================================================================
// PER-USER LOCKS
// =============================================================================

// userLocks hands out one mutex per user id, created lazily and kept
// for the life of the process. The guard mutex is held only for the
// map lookup, never across an operation.
type userLocks struct {
	mu    sync.Mutex
	byUID map[UserID]*sync.Mutex
}

func (l *userLocks) lock(id UserID) (unlock func()) {
	l.mu.Lock()
	if l.byUID == nil {
		l.byUID = make(map[UserID]*sync.Mutex)
	}
	m, ok := l.byUID[id]
	if !ok {
		m = &sync.Mutex{}
		l.byUID[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
