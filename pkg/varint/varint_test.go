package varint

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 129, 16383, 16384, 1 << 35, ^uint64(0)}
	for _, v := range cases {
		buf := Append(nil, v)
		if len(buf) != Size(v) {
			t.Errorf("Size(%d)=%d, Append produced %d bytes", v, Size(v), len(buf))
		}
		got, n, ok := Decode(buf)
		if !ok {
			t.Fatalf("Decode(%v) not ok", buf)
		}
		if got != v {
			t.Errorf("round trip %d -> %v -> %d", v, buf, got)
		}
		if n != len(buf) {
			t.Errorf("Decode consumed %d of %d bytes", n, len(buf))
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := Append(nil, 16384)
	_, _, ok := Decode(buf[:1])
	if ok {
		t.Fatal("expected truncated decode to fail")
	}
}

func TestAppendPreservesPrefix(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	buf := Append(append([]byte{}, prefix...), 300)
	if buf[0] != 0xAA || buf[1] != 0xBB {
		t.Fatal("Append must not disturb existing buffer contents")
	}
}
