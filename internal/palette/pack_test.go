package palette

import (
	"math/rand"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	for bitsPerEntry := 0; bitsPerEntry <= 32; bitsPerEntry++ {
		bitsPerEntry := bitsPerEntry
		t.Run("", func(t *testing.T) {
			const n = 4096
			values := make([]int32, n)
			if bitsPerEntry > 0 {
				max := int64(1) << uint(bitsPerEntry)
				rng := rand.New(rand.NewSource(int64(bitsPerEntry)))
				for i := range values {
					values[i] = int32(rng.Int63n(max))
				}
			}

			longs := Pack(values, bitsPerEntry)
			if bitsPerEntry > 0 {
				perLong := 64 / bitsPerEntry
				wantLongs := (n + perLong - 1) / perLong
				if len(longs) != wantLongs {
					t.Fatalf("bits=%d: got %d longs, want %d", bitsPerEntry, len(longs), wantLongs)
				}
			}

			got := Unpack(longs, bitsPerEntry, n)
			if bitsPerEntry == 0 {
				return
			}
			for i := range values {
				if got[i] != values[i] {
					t.Fatalf("bits=%d index %d: got %d want %d", bitsPerEntry, i, got[i], values[i])
				}
			}
		})
	}
}

func TestPackNoBoundarySpanning(t *testing.T) {
	// bitsPerEntry=5: 64/5=12 entries per long, 4 bits wasted per long.
	// Fill 13 entries (spans two longs) and check the 13th entry sits
	// alone in the second long rather than straddling the first.
	values := make([]int32, 13)
	for i := range values {
		values[i] = int32(i + 1)
	}
	longs := Pack(values, 5)
	if len(longs) != 2 {
		t.Fatalf("got %d longs, want 2", len(longs))
	}
	second := uint64(longs[1])
	if second&0x1F != uint64(values[12]) {
		t.Fatalf("entry 12 not found at bit 0 of the second long: %#x", second)
	}
}

func TestBuildSingleVsIndirect(t *testing.T) {
	values := make([]int32, BlockKind.Entries)
	for i := range values {
		values[i] = 7
	}
	c := Build(BlockKind, values)
	if c.Mode != ModeSingle {
		t.Fatalf("uniform section chose mode %v, want Single", c.Mode)
	}

	values[0] = 8
	c = Build(BlockKind, values)
	if c.Mode == ModeSingle {
		t.Fatal("non-uniform section chose Single")
	}
}

func TestIndirectBitsPerEntry(t *testing.T) {
	// 17 distinct ids -> ceil(log2(17))=5, clamped to >=4 -> 5 bits.
	values := make([]int32, BlockKind.Entries)
	for i := range values {
		values[i] = int32(i % 17)
	}
	distinct := distinctInFirstOccurrenceOrder(values)
	if len(distinct) != 17 {
		t.Fatalf("expected 17 distinct ids, got %d", len(distinct))
	}
	bpe := bitsFor(len(distinct))
	if bpe < BlockKind.MinIndirectBits {
		bpe = BlockKind.MinIndirectBits
	}
	if bpe != 5 {
		t.Fatalf("got bitsPerEntry=%d, want 5", bpe)
	}

	// 18th distinct id still fits at 5 bits (2^5=32).
	values[1] = 17
	distinct = distinctInFirstOccurrenceOrder(values)
	if len(distinct) != 18 {
		t.Fatalf("expected 18 distinct ids, got %d", len(distinct))
	}
	if bitsFor(len(distinct)) != 5 {
		t.Fatalf("18 distinct ids should still fit at 5 bits")
	}
}
