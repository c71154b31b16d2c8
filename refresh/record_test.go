package refresh

import (
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	in := &Record{Hash: HashToken("tok"), IssuedAt: 1700000000}
	data, err := EncodeRecord(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != recordSize {
		t.Fatalf("expected %d bytes, got %d", recordSize, len(data))
	}
	out, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Hash != in.Hash || out.IssuedAt != in.IssuedAt {
		t.Fatalf("record mismatch: %+v != %+v", out, in)
	}
}

func TestDecodeRecordRejectsMalformed(t *testing.T) {
	good, _ := EncodeRecord(&Record{Hash: HashToken("tok"), IssuedAt: 1})

	badVersion := append([]byte(nil), good...)
	badVersion[0] = 9

	cases := map[string][]byte{
		"empty":     {},
		"version":   badVersion,
		"truncated": good[:20],
		"no time":   good[:1+HashSize],
		"trailing":  append(append([]byte(nil), good...), 0),
	}
	for name, data := range cases {
		if _, err := DecodeRecord(data); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestHashTokenDistinguishesInputs(t *testing.T) {
	if hashEqual(HashToken("a"), HashToken("b")) {
		t.Fatal("expected different digests")
	}
	if !hashEqual(HashToken("a"), HashToken("a")) {
		t.Fatal("expected equal digests")
	}
}
