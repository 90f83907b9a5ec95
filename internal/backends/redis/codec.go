package redis

import (
	"conncheck/internal/types"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// EncodeRecord encodes the record as JSON and compresses it.
func EncodeRecord(r types.Record) ([]byte, error) {
	s, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(s, make([]byte, 0, len(s))), nil
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(b []byte) (types.Record, error) {
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return types.Record{}, err
	}
	var r types.Record
	if err := json.Unmarshal(out, &r); err != nil {
		return types.Record{}, err
	}
	return r, nil
}
