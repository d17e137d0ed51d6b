package protowire

import "testing"

func TestConsumeTag(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		number Number
		typ    Type
		n      int
	}{
		{"field1 varint", []byte{0x08}, 1, VarintType, 1},
		{"field1 len", []byte{0x0a}, 1, BytesType, 1},
		{"field3 fixed32", []byte{0x1d}, 3, Fixed32Type, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, typ, n := ConsumeTag(tt.in)
			if n != tt.n {
				t.Fatalf("n = %d, want %d", n, tt.n)
			}
			if num != tt.number {
				t.Errorf("number = %d, want %d", num, tt.number)
			}
			if typ != tt.typ {
				t.Errorf("type = %d, want %d", typ, tt.typ)
			}
		})
	}
}

func TestConsumeVarint_Distance9001(t *testing.T) {
	// spec.md scenario 2: `08 a9 46` decodes field 1 = varint 9001.
	b := []byte{0xa9, 0x46}
	v, n := ConsumeVarint(b)
	if n != len(b) {
		t.Fatalf("n = %d, want %d", n, len(b))
	}
	if v != 9001 {
		t.Fatalf("v = %d, want 9001", v)
	}
}

func TestAppendConsumeRoundTrip(t *testing.T) {
	var b []byte
	b = AppendTag(b, 5, BytesType)
	b = AppendBytes(b, []byte("hello"))

	num, typ, n := ConsumeTag(b)
	if num != 5 || typ != BytesType {
		t.Fatalf("got (%d, %d)", num, typ)
	}
	b = b[n:]
	payload, n := ConsumeBytes(b)
	if n != len(b) {
		t.Fatalf("n = %d, want %d", n, len(b))
	}
	if string(payload) != "hello" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestZigZagRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2147483647, -2147483648} {
		if got := DecodeZigZag(EncodeZigZag(v)); got != v {
			t.Errorf("zigzag round trip failed for %d: got %d", v, got)
		}
	}
}
