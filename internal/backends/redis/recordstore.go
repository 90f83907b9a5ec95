package redis

import (
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	recordsKeyNameTemplate = "_conncheck_records_%s"
)

var _ ports.RecordStore = (*RecordStore)(nil)

// RecordStore keeps each table as a list, newest at the head, capped at
// types.HardLimitStoredRecords entries.
type RecordStore struct {
	cli *redis.Client
	now func() time.Time
}

func NewRecordStore(cli *redis.Client) *RecordStore {
	return &RecordStore{cli: cli, now: time.Now}
}

func (s *RecordStore) Close() error { return s.cli.Close() }

func (s *RecordStore) Insert(ctx context.Context, table string, rec types.Record) (types.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	b, err := EncodeRecord(rec)
	if err != nil {
		return types.Record{}, err
	}
	key := getRecordsKey(table)
	_, err = s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, types.HardLimitStoredRecords-1)
		return nil
	})
	if err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func (s *RecordStore) Latest(ctx context.Context, table string, limit int) ([]types.Record, error) {
	vals, err := s.cli.LRange(ctx, getRecordsKey(table), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	recs := make([]types.Record, 0, len(vals))
	for _, v := range vals {
		r, err := DecodeRecord([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("invalid record: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Clear drops the table. Used in tests only.
func (s *RecordStore) Clear(ctx context.Context, table string) error {
	return s.cli.Del(ctx, getRecordsKey(table)).Err()
}

func getRecordsKey(table string) string {
	return fmt.Sprintf(recordsKeyNameTemplate, table)
}
