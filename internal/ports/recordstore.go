package ports

import (
	"conncheck/internal/types"
	"context"
)

// RecordStore appends records to a named table and reads the newest ones back.
type RecordStore interface {
	// Insert writes a single record and returns it as stored, including any
	// server-assigned id and created_at.
	Insert(ctx context.Context, table string, rec types.Record) (types.Record, error)

	// Latest returns at most limit records ordered by created_at descending.
	// An empty table MUST yield an empty slice and a nil error.
	Latest(ctx context.Context, table string, limit int) ([]types.Record, error)
}
