// history.go - Read path for transaction histories.
//
// Thin pass-through over the Store. The one design point: it reads the
// same store the engine writes, with no cache in between, so there is
// no staleness window beyond the store's own snapshot.
package point

import "context"

// HistoryReader returns a user's transaction history. No mutation.
type HistoryReader struct {
	store Store
}

func NewHistoryReader(store Store) *HistoryReader {
	return &HistoryReader{store: store}
}

// History returns records in insertion order (chronological for a
// single user). An unknown user yields an empty slice.
func (r *HistoryReader) History(ctx context.Context, id UserID) ([]TransactionRecord, error) {
	return r.store.ReadHistory(ctx, id)
}
