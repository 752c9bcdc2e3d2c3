package palette

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContainerRoundTripBlocks(t *testing.T) {
	const registrySize = 1 << 15

	cases := map[string][]int32{
		"single": repeat(4096, 42),
		"indirect": sequenceModulo(4096, 17),
		"direct": sequenceModulo(4096, 600), // forces bitsFor(600)=10 > MaxIndirectBits=8
	}

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			c := Build(BlockKind, values)
			var buf bytes.Buffer
			if err := c.Encode(&buf, registrySize); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(&buf, BlockKind, registrySize)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(values, got.Values); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContainerRoundTripBiomes(t *testing.T) {
	const registrySize = 64
	values := sequenceModulo(64, 5)
	c := Build(BiomeKind, values)

	var buf bytes.Buffer
	if err := c.Encode(&buf, registrySize); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf, BiomeKind, registrySize)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(values, got.Values); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectPromotionAcceptedByDecoder(t *testing.T) {
	const registrySize = 1 << 9
	values := sequenceModulo(4096, 257) // 257 distinct ids -> bitsFor=9 > 8, promotes to Direct
	c := Build(BlockKind, values)

	var buf bytes.Buffer
	if err := c.Encode(&buf, registrySize); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf, BlockKind, registrySize)
	if err != nil {
		t.Fatalf("decode promoted direct container: %v", err)
	}
	if got.Mode != ModeDirect {
		t.Fatalf("got mode %v, want Direct", got.Mode)
	}
}

func repeat(n int, v int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sequenceModulo(n int, mod int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i) % mod
	}
	return out
}
