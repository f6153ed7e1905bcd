package codec

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/guileen/litequery/engine/errors"
)

type KeyType byte

const (
	KeyTypeMeta  KeyType = 'm'
	KeyTypeTable KeyType = 't'
	KeyTypeBatch KeyType = 'b'
)

const nameTerminator byte = 0x00

// ValidateTableName rejects names that cannot be embedded in a key.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.NewValidationErrorf("codec.ValidateTableName", "empty table name")
	}
	if strings.IndexByte(name, nameTerminator) >= 0 {
		return errors.NewValidationErrorf("codec.ValidateTableName", "table name %q contains a NUL byte", name)
	}
	return nil
}

// EncodeSchemaKey returns the key holding a table's schema.
func EncodeSchemaKey(name string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte(byte(KeyTypeMeta))
	buf.WriteString(name)
	buf.WriteByte(nameTerminator)
	return buf.Bytes()
}

// SchemaKeyRange bounds every schema key.
func SchemaKeyRange() (lower, upper []byte) {
	return []byte{byte(KeyTypeMeta)}, []byte{byte(KeyTypeMeta) + 1}
}

// DecodeSchemaKey extracts the table name from a schema key.
func DecodeSchemaKey(key []byte) (string, error) {
	if len(key) < 2 || KeyType(key[0]) != KeyTypeMeta || key[len(key)-1] != nameTerminator {
		return "", errors.NewCodecErrorf("codec.DecodeSchemaKey", "invalid schema key %x", key)
	}
	return string(key[1 : len(key)-1]), nil
}

func tablePrefix(name string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteByte(byte(KeyTypeTable))
	buf.WriteString(name)
	buf.WriteByte(nameTerminator)
	buf.WriteByte(byte(KeyTypeBatch))
	return buf.Bytes()
}

// EncodeBatchKey returns the key of the seq-th batch of a table. Keys of one
// table sort by seq.
func EncodeBatchKey(name string, seq int64) []byte {
	buf := bytes.NewBuffer(tablePrefix(name))
	writeMemComparableInt64(buf, seq)
	return buf.Bytes()
}

// BatchKeyRange bounds the batch keys of a table.
func BatchKeyRange(name string) (lower, upper []byte) {
	lower = tablePrefix(name)
	upper = append([]byte(nil), lower...)
	upper[len(upper)-1]++
	return lower, upper
}

// DecodeBatchKey extracts table name and sequence from a batch key.
func DecodeBatchKey(key []byte) (name string, seq int64, err error) {
	if len(key) < 1 || KeyType(key[0]) != KeyTypeTable {
		return "", 0, errors.NewCodecErrorf("codec.DecodeBatchKey", "invalid table key prefix")
	}
	end := bytes.IndexByte(key[1:], nameTerminator)
	if end < 0 {
		return "", 0, errors.NewCodecErrorf("codec.DecodeBatchKey", "unterminated table name")
	}
	name = string(key[1 : 1+end])
	offset := 1 + end + 1
	if offset >= len(key) || KeyType(key[offset]) != KeyTypeBatch {
		return "", 0, errors.NewCodecErrorf("codec.DecodeBatchKey", "invalid batch key marker")
	}
	offset++

	seq, n := readMemComparableInt64(key[offset:])
	if n == 0 {
		return "", 0, errors.NewCodecErrorf("codec.DecodeBatchKey", "truncated batch sequence")
	}
	return name, seq, nil
}

func writeMemComparableInt64(buf *bytes.Buffer, v int64) {
	var tmp [8]byte
	u := uint64(v)
	u ^= 0x8000000000000000
	binary.BigEndian.PutUint64(tmp[:], u)
	buf.Write(tmp[:])
}

func readMemComparableInt64(data []byte) (int64, int) {
	if len(data) < 8 {
		return 0, 0
	}
	u := binary.BigEndian.Uint64(data[:8])
	u ^= 0x8000000000000000
	return int64(u), 8
}
