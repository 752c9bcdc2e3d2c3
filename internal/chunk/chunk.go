// Package chunk defines the Chunk data model shared by generation, the
// cache, region persistence, and the view-window manager: a chunk is a
// 16×16 column of fixed-height sections, each section a 4096-entry
// paletted block container plus a 64-entry paletted biome container.
package chunk

import (
	"github.com/ocraft/voxelserver/internal/dimension"
	"github.com/ocraft/voxelserver/internal/palette"
)

// Pos identifies a chunk by its column coordinates. Equality and hashing
// are structural, which is exactly what a Go struct of comparable fields
// gives for free when used as a map key.
type Pos struct {
	X, Z int32
}

// Region returns the 32×32-chunk region this position belongs to, using
// Euclidean (floor) division/modulus as required for negative coordinates.
func (p Pos) Region() RegionPos {
	return RegionPos{X: floorDiv32(p.X), Z: floorDiv32(p.Z)}
}

func floorDiv32(v int32) int32 {
	if v >= 0 {
		return v >> 5
	}
	return -(((-v) + 31) >> 5)
}

// RegionPos identifies a 32×32-chunk region file.
type RegionPos struct {
	X, Z int32
}

// Section is one 16×16×16 vertical slice of a chunk: a paletted block
// container, a paletted biome container (sampled on a 4×4×4 sub-grid), and
// a cached non-air count that must always equal what's recomputable from
// Blocks.
type Section struct {
	Blocks      *palette.Container
	Biomes      *palette.Container
	NonAirCount int
}

// Chunk owns one column's worth of sections, per-column heightmaps, and
// bookkeeping for the copy-on-write mutation discipline described in the
// design notes: Version increments and Dirty is set on every mutation: a
// gameplay handler clones, mutates the clone, and re-inserts it into the
// cache rather than mutating a chunk readers may be holding.
type Chunk struct {
	Pos        Pos
	Dim        dimension.Descriptor
	Sections   []*Section // len == Dim.SectionCount(), index 0 == lowest section
	Heightmap  [256]int32 // index z*16+x, highest y with a non-air block, +1; Dim.MinY if column is all-air

	Version int64
	Dirty   bool
}

// New builds an all-air Chunk for pos in dimension dim.
func New(pos Pos, dim dimension.Descriptor) *Chunk {
	c := &Chunk{Pos: pos, Dim: dim, Sections: make([]*Section, dim.SectionCount())}
	for y := range c.Heightmap {
		c.Heightmap[y] = dim.MinY
	}
	for i := range c.Sections {
		c.Sections[i] = emptySection()
	}
	return c
}

func emptySection() *Section {
	blocks := make([]int32, palette.BlockKind.Entries)
	biomes := make([]int32, palette.BiomeKind.Entries)
	return &Section{
		Blocks: palette.Build(palette.BlockKind, blocks),
		Biomes: palette.Build(palette.BiomeKind, biomes),
	}
}

// sectionIndexForY returns the section slice index owning world Y, or -1
// if y is outside [MinY, MinY+Height).
func (c *Chunk) sectionIndexForY(y int32) int {
	if y < c.Dim.MinY || y >= c.Dim.MinY+c.Dim.Height {
		return -1
	}
	return int((y - c.Dim.MinY) / 16)
}

// BlockAt returns the registry block-state id at local column (x,z) and
// world height y, or 0 (air) if y is out of range.
func (c *Chunk) BlockAt(x int, y int32, z int) int32 {
	idx := c.sectionIndexForY(y)
	if idx < 0 {
		return 0
	}
	sy := int((y - c.Dim.MinY) % 16)
	return c.Sections[idx].Blocks.Values[palette.BlockIndex(x, sy, z)]
}

// SetBlockAt mutates a single block in place. Callers implementing the
// copy-on-write discipline call Clone first; SetBlockAt itself only
// maintains the section's NonAirCount and this chunk's heightmap/version,
// it does not enforce exclusivity.
func (c *Chunk) SetBlockAt(x int, y int32, z int, id int32) {
	idx := c.sectionIndexForY(y)
	if idx < 0 {
		return
	}
	sy := int((y - c.Dim.MinY) % 16)
	sec := c.Sections[idx]
	i := palette.BlockIndex(x, sy, z)

	was := sec.Blocks.Values[i]
	if was == id {
		return
	}
	sec.Blocks.Values[i] = id
	switch {
	case was == 0 && id != 0:
		sec.NonAirCount++
	case was != 0 && id == 0:
		sec.NonAirCount--
	}

	c.updateHeightmapColumn(x, z)
	c.Version++
	c.Dirty = true
}

// SetBiomeAt sets the biome sampled at the 4×4×4 sub-grid cell covering
// local column (x,z) and world height y. Unlike SetBlockAt this does not
// touch the heightmap or version counter; biome painting during
// generation is expected to run before a chunk is ever inserted into the
// cache, not as a live per-player mutation.
func (c *Chunk) SetBiomeAt(x int, y int32, z int, biomeID int32) {
	idx := c.sectionIndexForY(y)
	if idx < 0 {
		return
	}
	sy := int((y - c.Dim.MinY) % 16)
	sec := c.Sections[idx]
	sec.Biomes.Values[palette.BiomeIndex(x/4, sy/4, z/4)] = biomeID
}

// updateHeightmapColumn recomputes the heightmap entry for (x,z) by
// scanning down from the top; it is only called after a mutation, so the
// scan cost is paid per edit rather than per read.
func (c *Chunk) updateHeightmapColumn(x, z int) {
	top := c.Dim.MinY
	for y := c.Dim.MinY + c.Dim.Height - 1; y >= c.Dim.MinY; y-- {
		if c.BlockAt(x, y, z) != 0 {
			top = y + 1
			break
		}
	}
	c.Heightmap[z*16+x] = top
}

// Clone returns a deep copy of c for the copy-on-write mutation
// discipline: the cache's resident chunk is never mutated in place, a
// clone is edited (each SetBlockAt bumps its Version) and re-inserted.
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{Pos: c.Pos, Dim: c.Dim, Version: c.Version, Dirty: c.Dirty, Heightmap: c.Heightmap}
	out.Sections = make([]*Section, len(c.Sections))
	for i, s := range c.Sections {
		blocksCopy := make([]int32, len(s.Blocks.Values))
		copy(blocksCopy, s.Blocks.Values)
		biomesCopy := make([]int32, len(s.Biomes.Values))
		copy(biomesCopy, s.Biomes.Values)
		out.Sections[i] = &Section{
			Blocks:      &palette.Container{Kind: s.Blocks.Kind, Mode: s.Blocks.Mode, Single: s.Blocks.Single, Values: blocksCopy},
			Biomes:      &palette.Container{Kind: s.Biomes.Kind, Mode: s.Biomes.Mode, Single: s.Biomes.Single, Values: biomesCopy},
			NonAirCount: s.NonAirCount,
		}
	}
	return out
}

// CheckInvariants verifies the data-model invariants from the
// specification's data model section: section count/order is fixed,
// cached non-air counts match the block array, and every non-air block's
// height is covered by its column heightmap. It is exercised by tests,
// not the hot path.
func (c *Chunk) CheckInvariants() error {
	if len(c.Sections) != c.Dim.SectionCount() {
		return errSection("section count mismatch")
	}
	for _, sec := range c.Sections {
		actual := 0
		for _, v := range sec.Blocks.Values {
			if v != 0 {
				actual++
			}
		}
		if actual != sec.NonAirCount {
			return errSection("non-air count cache stale")
		}
	}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			hm := c.Heightmap[z*16+x]
			for y := c.Dim.MinY; y < c.Dim.MinY+c.Dim.Height; y++ {
				if c.BlockAt(x, y, z) != 0 && y >= hm {
					return errSection("heightmap below a non-air block")
				}
			}
		}
	}
	return nil
}

type chunkInvariantError string

func (e chunkInvariantError) Error() string { return string(e) }

func errSection(msg string) error { return chunkInvariantError(msg) }
