package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/point-ledger/point"
	"github.com/warp/point-ledger/point/store"
)

func TestMemory_Read_MaterializesDefaultOnce(t *testing.T) {
	// GIVEN: An unknown user
	// WHEN: Reading twice
	// THEN: Both reads return the same zero-point record

	mem := store.NewMemory()
	ctx := context.Background()

	first, err := mem.Read(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, point.UserID(42), first.UserID)
	assert.Equal(t, int64(0), first.Points)

	second, err := mem.Read(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first, second, "materialized record must be stable")
}

type fixedClock struct{ millis int64 }

func (c fixedClock) NowMillis() int64 { return c.millis }

func TestMemory_Read_MaterializedTimestampComesFromClock(t *testing.T) {
	mem := store.NewMemoryWithClock(fixedClock{millis: 42_000})

	balance, err := mem.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), balance.UpdatedAtMillis)
}

func TestMemory_CompareAndWrite_MatchSucceeds(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	updated, err := mem.CompareAndWrite(ctx, 1, 0, 100, 5_000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), updated.Points)
	assert.Equal(t, int64(5_000), updated.UpdatedAtMillis)

	read, err := mem.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, updated, read)
}

func TestMemory_CompareAndWrite_StaleExpectationRejected(t *testing.T) {
	// GIVEN: A balance of 100
	// WHEN: Writing with an expectation of 0
	// THEN: ErrConcurrentModification, stored value untouched

	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.CompareAndWrite(ctx, 1, 0, 100, 5_000)
	require.NoError(t, err)

	_, err = mem.CompareAndWrite(ctx, 1, 0, 200, 6_000)
	assert.ErrorIs(t, err, point.ErrConcurrentModification)

	read, err := mem.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), read.Points)
}

func TestMemory_AppendHistory_AssignsMonotonicIDsAcrossUsers(t *testing.T) {
	// Record ids are store-wide, not per user.

	mem := store.NewMemory()
	ctx := context.Background()

	r1, err := mem.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 10, Type: point.TxCharge})
	require.NoError(t, err)
	r2, err := mem.AppendHistory(ctx, point.TransactionRecord{UserID: 2, Amount: 20, Type: point.TxCharge})
	require.NoError(t, err)
	r3, err := mem.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 5, Type: point.TxUse})
	require.NoError(t, err)

	assert.Less(t, r1.ID, r2.ID)
	assert.Less(t, r2.ID, r3.ID)
}

func TestMemory_ReadHistory_InsertionOrderAndIsolation(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 10, Type: point.TxCharge})
	require.NoError(t, err)
	_, err = mem.AppendHistory(ctx, point.TransactionRecord{UserID: 1, Amount: 3, Type: point.TxUse})
	require.NoError(t, err)

	history, err := mem.ReadHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, point.TxCharge, history[0].Type)
	assert.Equal(t, point.TxUse, history[1].Type)

	// Mutating the returned slice must not leak into the store.
	history[0].Amount = 999
	again, err := mem.ReadHistory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), again[0].Amount)
}

func TestMemory_ReadHistory_UnknownUserEmptyNotNilError(t *testing.T) {
	mem := store.NewMemory()

	history, err := mem.ReadHistory(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, history)
}
