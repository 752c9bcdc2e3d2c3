package packetset

import (
	"bytes"

	"github.com/willf/bitset"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/nbt"
	"github.com/ocraft/voxelserver/internal/palette"
	"github.com/ocraft/voxelserver/internal/proto"
)

// EncodeChunkData builds the ChunkData packet payload for c. Unlike the
// rest of this package's packets, it is not routed through Marshal: a
// section's bitpacked block/biome containers and the heightmap/light
// arrays don't fit a flat list of scalar struct fields, the same reason
// the teacher hand-writes its own chunk NBT encoder instead of reusing
// its tag-based marshaller for it.
func EncodeChunkData(c *chunk.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := proto.WriteI32(&buf, c.Pos.X); err != nil {
		return nil, err
	}
	if err := proto.WriteI32(&buf, c.Pos.Z); err != nil {
		return nil, err
	}

	heightmaps, err := encodeHeightmaps(c)
	if err != nil {
		return nil, err
	}
	if _, err := proto.WriteByteArray(&buf, heightmaps); err != nil {
		return nil, err
	}

	sections, err := c.EncodeSectionsBytes(c.Dim.BlockRegistry, c.Dim.BiomeRegistry)
	if err != nil {
		return nil, err
	}
	if _, err := proto.WriteByteArray(&buf, sections); err != nil {
		return nil, err
	}

	if _, err := proto.WriteVarInt(&buf, 0); err != nil { // block entity count
		return nil, err
	}

	// Light data: this implementation has no lighting engine (gameplay
	// lighting is out of scope per §1); every mask is empty and every
	// per-section array list is empty, which real clients render as a
	// fully unlit chunk rather than rejecting the packet.
	if err := proto.WriteBool(&buf, true); err != nil { // trust edges
		return nil, err
	}
	empty := bitset.New(0)
	for i := 0; i < 4; i++ { // sky light mask, block light mask, empty sky mask, empty block mask
		if err := proto.WriteBitSet(&buf, empty); err != nil {
			return nil, err
		}
	}
	for i := 0; i < 2; i++ { // sky light arrays, block light arrays
		if _, err := proto.WriteVarInt(&buf, 0); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// encodeHeightmaps builds the single-compound NBT blob ChunkData carries:
// one MOTION_BLOCKING long array, packed the same no-long-spanning way
// §4.5 requires for sections, reusing internal/palette.Pack rather than
// a second bit-packing implementation.
func encodeHeightmaps(c *chunk.Chunk) ([]byte, error) {
	bitsPerEntry := bitsForRange(c.Dim.Height + 1)
	values := make([]int32, 256)
	for i, h := range c.Heightmap {
		values[i] = h - c.Dim.MinY
	}
	longs := palette.Pack(values, bitsPerEntry)

	var buf bytes.Buffer
	w := nbt.NewWriter(&buf)
	w.BeginCompound("")
	w.WriteLongArray("MOTION_BLOCKING", longs)
	w.EndCompound()
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bitsForRange(n int32) int {
	bits := 0
	for (int32(1) << uint(bits)) < n {
		bits++
	}
	return bits
}
