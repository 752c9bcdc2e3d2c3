// Package palette implements the bit-packed paletted-container codec used
// to wire chunk sections: 4096-entry block arrays and 64-entry biome
// arrays, each in Single, Indirect, or Direct palette mode.
package palette

import (
	"io"
	"math/bits"

	"github.com/ocraft/voxelserver/internal/errs"
	"github.com/ocraft/voxelserver/internal/proto"
)

// Mode is the palette representation chosen for a container's current
// content.
type Mode int

const (
	ModeSingle Mode = iota
	ModeIndirect
	ModeDirect
)

// Kind distinguishes block containers (4096 entries, 4..8 indirect bits)
// from biome containers (64 entries, 1..3 indirect bits).
type Kind struct {
	Entries         int
	MinIndirectBits int
	MaxIndirectBits int
}

var (
	BlockKind = Kind{Entries: 4096, MinIndirectBits: 4, MaxIndirectBits: 8}
	BiomeKind = Kind{Entries: 64, MinIndirectBits: 1, MaxIndirectBits: 3}
)

// Container is a decoded paletted container: either every entry equals
// Single, or Values holds the full per-entry registry ids (reconstructed
// eagerly from Indirect/Direct wire form so callers never have to know
// which mode produced it).
type Container struct {
	Kind   Kind
	Mode   Mode
	Single int32
	Values []int32 // length Kind.Entries, always populated
}

// bitsFor returns ceil(log2(n)) for n >= 1, and 0 for n <= 1.
func bitsFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Build constructs a Container from a flat array of registry ids
// (Values, indexed per Kind's ordering convention) by choosing the
// narrowest mode that fits, per spec: Single if all entries share one id;
// else Indirect at max(minBits, ceil(log2(distinct))) if that is within
// MaxIndirectBits; else Direct at ceil(log2(registrySize)).
func Build(kind Kind, values []int32) *Container {
	if len(values) != kind.Entries {
		panic("palette: wrong entry count")
	}
	first := values[0]
	allSame := true
	for _, v := range values[1:] {
		if v != first {
			allSame = false
			break
		}
	}
	if allSame {
		return &Container{Kind: kind, Mode: ModeSingle, Single: first, Values: values}
	}
	mode := ModeIndirect
	if bitsFor(len(distinctInFirstOccurrenceOrder(values))) > kind.MaxIndirectBits {
		mode = ModeDirect
	}
	return &Container{Kind: kind, Mode: mode, Values: values}
}

// distinctInFirstOccurrenceOrder returns the distinct ids in c.Values in
// first-occurrence order, matching the encode spec's step 1.
func distinctInFirstOccurrenceOrder(values []int32) []int32 {
	seen := make(map[int32]struct{}, 16)
	out := make([]int32, 0, 16)
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Encode writes c to w using registrySize to size the Direct fallback
// when the palette would otherwise exceed Kind.MaxIndirectBits.
func (c *Container) Encode(w io.Writer, registrySize int) error {
	distinct := distinctInFirstOccurrenceOrder(c.Values)

	if len(distinct) == 1 {
		return c.encodeSingle(w, distinct[0])
	}

	k := bitsFor(len(distinct))
	if k <= c.Kind.MaxIndirectBits {
		bitsPerEntry := k
		if bitsPerEntry < c.Kind.MinIndirectBits {
			bitsPerEntry = c.Kind.MinIndirectBits
		}
		return c.encodeIndirect(w, distinct, bitsPerEntry)
	}
	bitsPerEntry := bitsFor(registrySize)
	return c.encodeDirect(w, bitsPerEntry)
}

func (c *Container) encodeSingle(w io.Writer, id int32) error {
	if err := proto.WriteU8(w, 0); err != nil {
		return err
	}
	if _, err := proto.WriteVarInt(w, id); err != nil {
		return err
	}
	// Empty data-longs array.
	_, err := proto.WriteVarInt(w, 0)
	return err
}

func (c *Container) encodeIndirect(w io.Writer, palette []int32, bitsPerEntry int) error {
	if err := proto.WriteU8(w, uint8(bitsPerEntry)); err != nil {
		return err
	}
	if err := proto.WritePrefixedArray(w, palette, func(w io.Writer, id int32) error {
		_, err := proto.WriteVarInt(w, id)
		return err
	}); err != nil {
		return err
	}

	index := make(map[int32]int32, len(palette))
	for i, id := range palette {
		index[id] = int32(i)
	}
	localValues := make([]int32, len(c.Values))
	for i, v := range c.Values {
		localValues[i] = index[v]
	}
	longs := Pack(localValues, bitsPerEntry)
	return proto.WritePrefixedArray(w, longs, proto.WriteI64)
}

func (c *Container) encodeDirect(w io.Writer, bitsPerEntry int) error {
	if err := proto.WriteU8(w, uint8(bitsPerEntry)); err != nil {
		return err
	}
	longs := Pack(c.Values, bitsPerEntry)
	return proto.WritePrefixedArray(w, longs, proto.WriteI64)
}

// Decode reads a Container of the given Kind from r. knownRegistrySize
// bounds what counts as a valid registry id in Direct/Indirect mode; a
// value at or beyond it is a ProtocolViolation.
func Decode(r io.Reader, kind Kind, knownRegistrySize int) (*Container, error) {
	bitsPerEntry, err := proto.ReadU8(r)
	if err != nil {
		return nil, err
	}

	switch {
	case bitsPerEntry == 0:
		id, _, err := proto.ReadVarInt(r)
		if err != nil {
			return nil, err
		}
		if _, _, err := proto.ReadVarInt(r); err != nil { // empty data-longs length
			return nil, err
		}
		if int(id) < 0 || int(id) >= knownRegistrySize {
			return nil, &errs.ProtocolViolation{Reason: "single-palette id outside known registry"}
		}
		values := make([]int32, kind.Entries)
		for i := range values {
			values[i] = id
		}
		return &Container{Kind: kind, Mode: ModeSingle, Single: id, Values: values}, nil

	case int(bitsPerEntry) <= kind.MaxIndirectBits:
		palette, err := proto.ReadPrefixedArray(r, func(r io.Reader) (int32, error) {
			v, _, err := proto.ReadVarInt(r)
			return v, err
		})
		if err != nil {
			return nil, err
		}
		for _, id := range palette {
			if int(id) < 0 || int(id) >= knownRegistrySize {
				return nil, &errs.ProtocolViolation{Reason: "indirect-palette id outside known registry"}
			}
		}
		longs, err := proto.ReadPrefixedArray(r, proto.ReadI64)
		if err != nil {
			return nil, err
		}
		localValues := Unpack(longs, int(bitsPerEntry), kind.Entries)
		values := make([]int32, kind.Entries)
		for i, local := range localValues {
			if int(local) < 0 || int(local) >= len(palette) {
				return nil, &errs.ProtocolViolation{Reason: "indirect local index outside palette"}
			}
			values[i] = palette[local]
		}
		return &Container{Kind: kind, Mode: ModeIndirect, Values: values}, nil

	default:
		longs, err := proto.ReadPrefixedArray(r, proto.ReadI64)
		if err != nil {
			return nil, err
		}
		values := Unpack(longs, int(bitsPerEntry), kind.Entries)
		for _, id := range values {
			if int(id) < 0 || int(id) >= knownRegistrySize {
				return nil, &errs.ProtocolViolation{Reason: "direct id outside known registry"}
			}
		}
		return &Container{Kind: kind, Mode: ModeDirect, Values: values}, nil
	}
}
