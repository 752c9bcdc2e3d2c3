package proto

import (
	"bytes"
	"math"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, 128, 255, 2097151, math.MaxInt32, math.MinInt32, -25565, 25565}
	for _, v := range values {
		var buf bytes.Buffer
		if _, err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		size := buf.Len()
		if size < 1 || size > 5 {
			t.Fatalf("VarInt %d encoded to %d bytes, want 1..5", v, size)
		}
		if size != VarIntSize(v) {
			t.Fatalf("VarIntSize(%d) = %d, actual encoded size %d", v, VarIntSize(v), size)
		}
		got, n, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
		if n != size {
			t.Fatalf("read %d consumed %d bytes, wrote %d", v, n, size)
		}
	}
}

func TestVarIntTooLong(t *testing.T) {
	// Five bytes all with continuation bit set never terminates within
	// the 5-byte VarInt budget.
	buf := bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	if _, _, err := ReadVarInt(buf); err == nil {
		t.Fatal("expected error for overlong VarInt")
	}
}

func TestVarLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 0x0102030405060708}
	for _, v := range values {
		var buf bytes.Buffer
		if _, err := WriteVarLong(&buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, _, err := ReadVarLong(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestPositionPackingRoundTrip(t *testing.T) {
	cases := [][3]int32{
		{0, 0, 0},
		{1, 1, 1},
		{-1, -1, -1},
		{1 << 25, 0, 0}, // clamped into range below before encoding
		{-(1 << 25), -(1 << 11), -(1 << 25)},
		{(1 << 25) - 1, (1 << 11) - 1, (1 << 25) - 1},
	}
	for _, c := range cases {
		x, y, z := c[0], c[1], c[2]
		// Clamp to documented valid ranges before round-tripping.
		x = clamp(x, -(1<<25), (1<<25)-1)
		y = clamp(y, -(1<<11), (1<<11)-1)
		z = clamp(z, -(1<<25), (1<<25)-1)

		encoded := EncodePosition(x, y, z)
		gx, gy, gz := DecodePosition(encoded)
		if gx != x || gy != y || gz != z {
			t.Fatalf("position round trip (%d,%d,%d) -> (%d,%d,%d)", x, y, z, gx, gy, gz)
		}
	}
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
