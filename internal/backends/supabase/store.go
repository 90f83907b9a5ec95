package supabase

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	ColumnCreatedAt = "created_at"
	returnRows      = "representation"
)

var _ ports.RecordStore = (*RecordStore)(nil)

// NewClient builds a Supabase client from the project URL and API key. No request is made.
func NewClient(cfg types.SupabaseConfig) (*supa.Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	return supa.NewClient(cfg.URL, cfg.Key, &supa.ClientOptions{})
}

// row is the table layout: id (bigint or uuid), created_at timestamptz default now(),
// message_text text, author text.
type row struct {
	ID          json.RawMessage `json:"id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	MessageText string          `json:"message_text"`
	Author      string          `json:"author"`
}

type insertRow struct {
	MessageText string `json:"message_text"`
	Author      string `json:"author"`
}

func (r row) record() types.Record {
	return types.Record{
		ID:        idString(r.ID),
		Message:   r.MessageText,
		Author:    r.Author,
		CreatedAt: r.CreatedAt,
	}
}

// idString renders a numeric or string id column as text. null and absent give "".
func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type RecordStore struct {
	cli *supa.Client
}

func NewRecordStore(cli *supa.Client) *RecordStore {
	return &RecordStore{cli: cli}
}

// Insert adds one row and asks PostgREST to return it, so id and created_at are the server's.
// The postgrest client does not take a context; ctx is checked before the call only.
func (s *RecordStore) Insert(ctx context.Context, table string, rec types.Record) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}
	var rows []row
	_, err := s.cli.From(table).
		Insert(insertRow{MessageText: rec.Message, Author: rec.Author}, false, "", returnRows, "").
		ExecuteTo(&rows)
	if err != nil {
		return types.Record{}, err
	}
	if len(rows) == 0 {
		return types.Record{}, fmt.Errorf("insert into %s returned no row", table)
	}
	return rows[0].record(), nil
}

// Latest runs select * order by created_at desc limit n.
func (s *RecordStore) Latest(ctx context.Context, table string, limit int) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []row
	_, err := s.cli.From(table).
		Select("*", "", false).
		Order(ColumnCreatedAt, &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}
