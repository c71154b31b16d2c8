package refresh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	recordFormatVersionCurrent = 1
	recordSize                 = 1 + HashSize + 8
)

// Record is the value stored under a subject's key. The refresh token itself
// is never persisted, only its digest.
type Record struct {
	Hash     [HashSize]byte
	IssuedAt int64
}

// EncodeRecord serializes r into the fixed-size binary layout
// {version, hash, issuedAt big-endian}.
func EncodeRecord(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	var buf bytes.Buffer
	buf.Grow(recordSize)

	buf.WriteByte(recordFormatVersionCurrent)
	buf.Write(r.Hash[:])
	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecord parses a stored value. Trailing bytes and unknown versions are
// rejected.
func DecodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}
	if _, err := io.ReadFull(reader, r.Hash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.IssuedAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in record")
	}
	return r, nil
}
