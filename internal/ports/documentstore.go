package ports

import (
	"conncheck/internal/types"
	"context"
)

// DocumentStore sets and gets single documents addressed by collection and id.
type DocumentStore interface {
	// SetDocument overwrites the document with fields plus a server-assigned "timestamp".
	SetDocument(ctx context.Context, ref types.DocRef, fields map[string]any) (types.WriteResult, error)

	// GetDocument MUST return a Document with Exists=false and a nil error when the
	// document is absent.
	GetDocument(ctx context.Context, ref types.DocRef) (types.Document, error)
}
