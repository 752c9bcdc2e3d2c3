package chunk

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ocraft/voxelserver/internal/palette"
)

// EncodeSections writes every section's non-air block count, block
// container, and biome container, back to back — the layout the 1.21.7
// ChunkData packet's chunk-data byte array holds. registrySize bounds
// Direct-mode promotion.
func (c *Chunk) EncodeSections(w io.Writer, blockRegistrySize, biomeRegistrySize int) error {
	for _, sec := range c.Sections {
		if err := writeI16(w, int16(sec.NonAirCount)); err != nil {
			return err
		}
		if err := sec.Blocks.Encode(w, blockRegistrySize); err != nil {
			return err
		}
		if err := sec.Biomes.Encode(w, biomeRegistrySize); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSectionsBytes is a convenience wrapper returning the encoded
// bytes directly, used when the caller needs to length-prefix the result
// (the ChunkData packet's Data field is itself a prefixed byte array).
func (c *Chunk) EncodeSectionsBytes(blockRegistrySize, biomeRegistrySize int) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeSections(&buf, blockRegistrySize, biomeRegistrySize); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSections reverses EncodeSections into sectionCount freshly
// decoded sections.
func DecodeSections(r io.Reader, sectionCount, blockRegistrySize, biomeRegistrySize int) ([]*Section, error) {
	sections := make([]*Section, sectionCount)
	for i := range sections {
		if _, err := readI16(r); err != nil {
			return nil, err
		}
		blocks, err := palette.Decode(r, palette.BlockKind, blockRegistrySize)
		if err != nil {
			return nil, err
		}
		biomes, err := palette.Decode(r, palette.BiomeKind, biomeRegistrySize)
		if err != nil {
			return nil, err
		}
		sec := &Section{Blocks: blocks, Biomes: biomes}
		recount(sec)
		sections[i] = sec
	}
	return sections, nil
}

func recount(s *Section) {
	n := 0
	for _, v := range s.Blocks.Values {
		if v != 0 {
			n++
		}
	}
	s.NonAirCount = n
}

func writeI16(w io.Writer, v int16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	_, err := w.Write(buf[:])
	return err
}

func readI16(r io.Reader) (int16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(buf[:])), nil
}

// SetSections replaces c.Sections wholesale and recomputes the heightmap,
// used by region-file and generation-pipeline loaders that build a chunk
// from already-decoded sections rather than through SetBlockAt.
func (c *Chunk) SetSections(sections []*Section) {
	c.Sections = sections
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			c.updateHeightmapColumn(x, z)
		}
	}
}
