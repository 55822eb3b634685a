package wire

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutUint8(0x2A)
	w.PutUint16(0xBEEF)
	w.PutUint32(0xDEADBEEF)
	w.PutUint64(0x0123456789ABCDEF)
	w.PutBytes([]byte{1, 2, 3, 4})

	r := NewReader(w.Bytes())

	u8, err := r.Uint8()
	if err != nil || u8 != 0x2A {
		t.Fatalf("Uint8 = %v, %v; want 0x2A, nil", u8, err)
	}
	u16, err := r.Uint16()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("Uint16 = %v, %v; want 0xBEEF, nil", u16, err)
	}
	u32, err := r.Uint32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("Uint32 = %v, %v; want 0xDEADBEEF, nil", u32, err)
	}
	u64, err := r.Uint64()
	if err != nil || u64 != 0x0123456789ABCDEF {
		t.Fatalf("Uint64 = %v, %v; want 0x0123456789ABCDEF, nil", u64, err)
	}
	b, err := r.Bytes(4)
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3, 4}) {
		t.Fatalf("Bytes(4) = %v, %v; want [1 2 3 4], nil", b, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReaderUnderflow(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.Uint32(); err == nil {
		t.Fatal("expected error reading Uint32 from a 2-byte buffer")
	}
}

func TestArray32(t *testing.T) {
	w := NewWriter()
	var a, b [32]byte
	a[0] = 0xAA
	b[0] = 0xBB
	w.PutBytes(a[:])
	w.PutBytes(b[:])

	r := NewReader(w.Bytes())
	records, err := r.Array32(2)
	if err != nil {
		t.Fatalf("Array32: %v", err)
	}
	if records[0] != a || records[1] != b {
		t.Fatalf("Array32 mismatch: got %v, %v", records[0], records[1])
	}
}

func TestArray32Underflow(t *testing.T) {
	r := NewReader(make([]byte, 10))
	if _, err := r.Array32(1); err == nil {
		t.Fatal("expected error decoding a 32-byte record from a 10-byte buffer")
	}
}
