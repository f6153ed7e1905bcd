package codec

import (
	"bytes"
	"encoding/json"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/klauspost/compress/zstd"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/pool"
	"github.com/guileen/litequery/types"
)

var encodeBuffers = pool.NewBufferPool("codec.encode", 8<<20)

// BatchCodec serializes batches as zstd-compressed arrow IPC streams. It is
// safe for concurrent use.
type BatchCodec struct {
	mem memory.Allocator
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewBatchCodec creates a codec. A nil allocator means the Go allocator.
func NewBatchCodec(mem memory.Allocator) (*BatchCodec, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, "codec.NewBatchCodec")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCodec, "codec.NewBatchCodec")
	}
	return &BatchCodec{mem: mem, enc: enc, dec: dec}, nil
}

// EncodeBatch serializes one batch.
func (c *BatchCodec) EncodeBatch(b *types.Batch) ([]byte, error) {
	const op = "codec.EncodeBatch"

	rec := b.Record()
	defer rec.Release()

	buf := encodeBuffers.Get()
	defer encodeBuffers.Put(buf)

	w := ipc.NewWriter(buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(c.mem))
	if err := w.Write(rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, op)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, op)
	}
	return c.enc.EncodeAll(buf.Bytes(), nil), nil
}

// DecodeBatch deserializes a batch and checks it against schema.
func (c *BatchCodec) DecodeBatch(data []byte, schema *types.Schema) (*types.Batch, error) {
	const op = "codec.DecodeBatch"

	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, op)
	}

	r, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(c.mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, op)
	}
	defer r.Release()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCodec, op)
		}
		return nil, errors.NewCodecErrorf(op, "stream holds no record")
	}
	rec := r.Record()
	rec.Retain()

	stored, err := types.SchemaFromArrow(rec.Schema())
	if err != nil {
		return nil, err
	}
	if !stored.Equal(schema) {
		return nil, errors.NewSchemaErrorf(op, "stored batch has schema %s, expected %s", stored, schema)
	}
	return types.BatchFromRecord(schema, rec)
}

// Close releases the compression state
func (c *BatchCodec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// EncodeSchema serializes a schema as JSON field definitions.
func EncodeSchema(s *types.Schema) ([]byte, error) {
	defs, err := s.Definitions()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(defs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, "codec.EncodeSchema")
	}
	return data, nil
}

// DecodeSchema is the inverse of EncodeSchema.
func DecodeSchema(data []byte) (*types.Schema, error) {
	var defs []types.FieldDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodec, "codec.DecodeSchema")
	}
	return types.SchemaFromDefinitions("", defs)
}
