// Package memory holds in-process DocumentStore and RecordStore implementations.
// They stand in for the hosted backends in tests and can be told to fail.
package memory

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"
)

var (
	_ ports.DocumentStore = (*DocumentStore)(nil)
	_ ports.RecordStore   = (*RecordStore)(nil)
)

type DocumentStore struct {
	mu   sync.Mutex
	docs map[string]map[string]any
	err  error
	now  func() time.Time
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]map[string]any), now: time.Now}
}

// FailWith makes every following call return err. nil restores normal behavior.
func (s *DocumentStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *DocumentStore) SetDocument(ctx context.Context, ref types.DocRef, fields map[string]any) (types.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return types.WriteResult{}, s.err
	}
	ts := s.now().UTC()
	doc := maps.Clone(fields)
	doc["timestamp"] = ts
	s.docs[ref.Path()] = doc
	msg, _ := fields["message"].(string)
	return types.WriteResult{Path: ref.Path(), Message: msg, UpdateTime: ts}, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, ref types.DocRef) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return types.Document{}, s.err
	}
	doc, ok := s.docs[ref.Path()]
	if !ok {
		return types.Document{Path: ref.Path()}, nil
	}
	return types.Document{Path: ref.Path(), Exists: true, Data: maps.Clone(doc)}, nil
}

// RecordStore keeps rows per table in insertion order and assigns ids and created_at.
type RecordStore struct {
	mu     sync.Mutex
	tables map[string][]types.Record
	seq    int
	err    error
	now    func() time.Time
}

func NewRecordStore() *RecordStore {
	return &RecordStore{tables: make(map[string][]types.Record), now: time.Now}
}

func (s *RecordStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SetClock replaces the clock used for created_at.
func (s *RecordStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *RecordStore) Insert(ctx context.Context, table string, rec types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return types.Record{}, s.err
	}
	s.seq++
	rec.ID = strconv.Itoa(s.seq)
	rec.CreatedAt = s.now().UTC()
	s.tables[table] = append(s.tables[table], rec)
	return rec, nil
}

func (s *RecordStore) Latest(ctx context.Context, table string, limit int) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rows := slices.Clone(s.tables[table])
	// Later inserts win ties on created_at.
	slices.Reverse(rows)
	slices.SortStableFunc(rows, func(a, b types.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
