package sqlite_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/point-ledger/point"
	"github.com/warp/point-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

type fixedClock struct{ millis int64 }

func (c fixedClock) NowMillis() int64 { return c.millis }

// =============================================================================
// STORE CONTRACT
// =============================================================================

func TestSQLite_Read_MaterializesZeroBalance(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	balance, err := st.Read(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, point.UserID(7), balance.UserID)
	assert.Equal(t, int64(0), balance.Points)
	assert.NotZero(t, balance.UpdatedAtMillis)
}

func TestSQLite_Read_MaterializedTimestampComesFromClock(t *testing.T) {
	st, err := sqlite.NewWithClock(":memory:", fixedClock{millis: 42_000})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	balance, err := st.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), balance.UpdatedAtMillis)
}

func TestSQLite_CompareAndWrite_GuardedUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	updated, err := st.CompareAndWrite(ctx, 1, 0, 150, 9_000)
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.Points)

	// Stale expectation loses.
	_, err = st.CompareAndWrite(ctx, 1, 0, 300, 9_500)
	assert.ErrorIs(t, err, point.ErrConcurrentModification)

	read, err := st.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), read.Points)
	assert.Equal(t, int64(9_000), read.UpdatedAtMillis)
}

func TestSQLite_History_AppendOnlyInsertionOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r1, err := st.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 100, Type: point.TxCharge, TimestampMillis: 1_000})
	require.NoError(t, err)
	r2, err := st.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 40, Type: point.TxUse, TimestampMillis: 2_000})
	require.NoError(t, err)
	r3, err := st.AppendHistory(ctx, point.TransactionRecord{UserID: 2, Amount: 7, Type: point.TxCharge, TimestampMillis: 3_000})
	require.NoError(t, err)

	assert.Less(t, r1.ID, r2.ID)
	assert.Less(t, r2.ID, r3.ID, "record ids are store-wide")

	history, err := st.ReadHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, point.TxCharge, history[0].Type)
	assert.Equal(t, int64(100), history[0].Amount)
	assert.Equal(t, point.TxUse, history[1].Type)

	empty, err := st.ReadHistory(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestSQLite_EngineTrace(t *testing.T) {
	// The same charge/use trace the engine tests run against the memory
	// store, to confirm the sqlite store honors the contract end to end.

	st := newTestStore(t)
	engine := point.NewEngine(st, zerolog.Nop())
	ctx := context.Background()

	balance, err := engine.Charge(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Points)

	balance, err = engine.Use(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(90), balance.Points)

	_, err = engine.Use(ctx, 1, 91)
	assert.ErrorIs(t, err, point.ErrInsufficientPoints)

	history, err := engine.GetHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, balance.UpdatedAtMillis, history[1].TimestampMillis)
}
