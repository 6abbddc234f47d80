// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/point-ledger/point"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (the assumed deployment)
// =============================================================================

// Memory holds balances and histories in process memory. Every method
// is atomic under one RWMutex; record ids are assigned from a single
// counter so they increase monotonically across all users.
type Memory struct {
	mu        sync.RWMutex
	balances  map[point.UserID]point.UserBalance
	histories map[point.UserID][]point.TransactionRecord
	nextID    point.RecordID

	nowMillis func() int64
}

func NewMemory() *Memory {
	return &Memory{
		balances:  make(map[point.UserID]point.UserBalance),
		histories: make(map[point.UserID][]point.TransactionRecord),
		nextID:    1,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// NewMemoryWithClock creates a memory store that stamps materialized
// balances with the given clock. Tests use this for determinism.
func NewMemoryWithClock(clock point.Clock) *Memory {
	m := NewMemory()
	m.nowMillis = clock.NowMillis
	return m
}

// Read returns the current balance, materializing a zero-point record
// on first access.
func (m *Memory) Read(_ context.Context, id point.UserID) (point.UserBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readLocked(id), nil
}

func (m *Memory) readLocked(id point.UserID) point.UserBalance {
	if b, ok := m.balances[id]; ok {
		return b
	}
	b := point.Empty(id, m.nowMillis())
	m.balances[id] = b
	return b
}

// CompareAndWrite replaces the balance only if the stored points still
// equal expectedPoints.
func (m *Memory) CompareAndWrite(_ context.Context, id point.UserID, expectedPoints, newPoints, newTimestampMillis int64) (point.UserBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.readLocked(id)
	if current.Points != expectedPoints {
		return point.UserBalance{}, point.ErrConcurrentModification
	}

	updated := point.UserBalance{
		UserID:          id,
		Points:          newPoints,
		UpdatedAtMillis: newTimestampMillis,
	}
	m.balances[id] = updated
	return updated, nil
}

// AppendHistory assigns the next RecordID and appends. Append-only.
func (m *Memory) AppendHistory(_ context.Context, rec point.TransactionRecord) (point.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextID
	m.nextID++
	m.histories[rec.UserID] = append(m.histories[rec.UserID], rec)
	return rec, nil
}

// ReadHistory returns records in insertion order. Returns a copy so
// callers cannot mutate the ledger.
func (m *Memory) ReadHistory(_ context.Context, id point.UserID) ([]point.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]point.TransactionRecord, len(m.histories[id]))
	copy(result, m.histories[id])
	return result, nil
}

// Compile-time check that Memory implements point.Store
var _ point.Store = (*Memory)(nil)
