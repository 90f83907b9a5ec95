package flow

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// SaveDocument overwrites the document at ref with the message and a server timestamp.
// Backend errors are wrapped in types.ErrOperation with the backend text kept as is; the
// call is made once and never retried.
func SaveDocument(ctx context.Context, store ports.DocumentStore, ref types.DocRef, message string) (types.WriteResult, error) {
	if err := (types.WriteRequest{Message: message}).Validate(); err != nil {
		return types.WriteResult{}, err
	}
	res, err := store.SetDocument(ctx, ref, map[string]any{"message": message})
	if err != nil {
		log.WithError(err).WithField("path", ref.Path()).Error("Document write failed")
		return types.WriteResult{}, fmt.Errorf("%w: %w", types.ErrOperation, err)
	}
	log.WithFields(log.Fields{
		"path":    ref.Path(),
		"message": message,
	}).Info("Document saved")
	return res, nil
}

// ReadDocument reads the document at ref. A missing document is a normal result with Exists=false.
func ReadDocument(ctx context.Context, store ports.DocumentStore, ref types.DocRef) (types.Document, Outcome, error) {
	doc, err := store.GetDocument(ctx, ref)
	if err != nil {
		log.WithError(err).WithField("path", ref.Path()).Error("Document read failed")
		return types.Document{}, Failed, fmt.Errorf("%w: %w", types.ErrOperation, err)
	}
	if !doc.Exists {
		log.WithField("path", ref.Path()).Debug("Document does not exist")
		return doc, Empty, nil
	}
	log.WithField("path", ref.Path()).Debug("Document read")
	return doc, Found, nil
}

// InsertRecord validates the request and inserts it as one record.
func InsertRecord(ctx context.Context, store ports.RecordStore, table string, req types.WriteRequest) (types.Record, error) {
	if err := req.Validate(); err != nil {
		return types.Record{}, err
	}
	rec, err := store.Insert(ctx, table, types.Record{
		Message: req.Message,
		Author:  req.Author,
	})
	if err != nil {
		log.WithError(err).WithField("table", table).Error("Record insert failed")
		return types.Record{}, fmt.Errorf("%w: %w", types.ErrOperation, err)
	}
	log.WithFields(log.Fields{
		"table":  table,
		"id":     rec.ID,
		"author": rec.Author,
	}).Info("Record inserted")
	return rec, nil
}

// ReadLatest returns up to limit records, newest first. limit is clamped to
// [1, types.MaxReadLimit]; zero means types.DefaultReadLimit.
func ReadLatest(ctx context.Context, store ports.RecordStore, table string, limit int) ([]types.Record, Outcome, error) {
	limit = ClampLimit(limit)
	recs, err := store.Latest(ctx, table, limit)
	if err != nil {
		log.WithError(err).WithField("table", table).Error("Record read failed")
		return nil, Failed, fmt.Errorf("%w: %w", types.ErrOperation, err)
	}
	if len(recs) == 0 {
		return []types.Record{}, Empty, nil
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	log.WithFields(log.Fields{
		"table": table,
		"count": len(recs),
	}).Debug("Records read")
	return recs, Found, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return types.DefaultReadLimit
	case limit > types.MaxReadLimit:
		return types.MaxReadLimit
	}
	return limit
}

// Notifier publishes write events. A nil Notifier or one without a target is a no-op.
type Notifier struct {
	Pub ports.Publisher
	Arn string
}

// WriteEvent publishes ev. Failures are logged only; a write that succeeded stays successful.
func (n *Notifier) WriteEvent(ctx context.Context, ev types.WriteEvent) {
	if n == nil || n.Pub == nil || n.Arn == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = timeNow().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal write event")
		return
	}
	if err := n.Pub.PublishRaw(ctx, n.Arn, b); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"backend": ev.Backend,
			"snsArn":  n.Arn,
		}).Warn("Failed to publish write event")
	}
}
