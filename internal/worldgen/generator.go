package worldgen

import (
	"context"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

// Generator produces a fully populated chunk deterministically from a
// seed and position, the external `generate(seed, pos)` function §4.7
// refers to.
type Generator interface {
	Generate(ctx context.Context, seed int64, pos chunk.Pos, dim dimension.Descriptor) (*chunk.Chunk, error)
}

// FlatGenerator produces a classic superflat world: bedrock at y=min,
// stone for two layers, dirt, grass — adapted from the teacher's
// pkg/world/gen/flat.go, generalized to an arbitrary dimension's MinY
// instead of the teacher's fixed y=0 origin.
type FlatGenerator struct{}

func (FlatGenerator) Generate(_ context.Context, _ int64, pos chunk.Pos, dim dimension.Descriptor) (*chunk.Chunk, error) {
	c := chunk.New(pos, dim)
	base := dim.MinY
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			c.SetBlockAt(x, base, z, blockBedrock)
			c.SetBlockAt(x, base+1, z, blockStone)
			c.SetBlockAt(x, base+2, z, blockStone)
			c.SetBlockAt(x, base+3, z, blockDirt)
			c.SetBlockAt(x, base+4, z, blockGrass)
			c.SetBiomeAt(x, base, z, int32(biomePlains))
		}
	}
	c.Dirty = false
	return c, nil
}

// OverworldGenerator produces noise-driven terrain with surface dressing,
// caves, and ore veins, adapted from the teacher's multi-pass
// pkg/world/gen pipeline (surface.go, caves.go, ores.go) generalized to
// emit paletted chunk.Chunk output over the dimension's real height
// range instead of the teacher's fixed 0..255.
type OverworldGenerator struct {
	biomes  *BiomeGenerator
	terrain *NoiseGenerator
	cave1   *NoiseGenerator
	cave2   *NoiseGenerator
	ores    *oreGenerator
}

func NewOverworldGenerator(seed int64) *OverworldGenerator {
	return &OverworldGenerator{
		biomes:  NewBiomeGenerator(seed),
		terrain: NewNoiseGenerator(seed),
		cave1:   NewNoiseGenerator(seed + 300),
		cave2:   NewNoiseGenerator(seed + 400),
		ores:    newOreGenerator(seed),
	}
}

func (g *OverworldGenerator) Generate(ctx context.Context, seed int64, pos chunk.Pos, dim dimension.Descriptor) (*chunk.Chunk, error) {
	c := chunk.New(pos, dim)
	var heights [16][16]int32

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			bx := int(pos.X)*16 + x
			bz := int(pos.Z)*16 + z
			nx := float64(bx) / 128.0
			nz := float64(bz) / 128.0
			n := g.terrain.OctaveNoise2D(nx, nz, 6, 0.5)
			height := int32(float64(seaLevel) + n*24.0)
			if height < dim.MinY+4 {
				height = dim.MinY + 4
			}
			if height >= dim.MinY+dim.Height-1 {
				height = dim.MinY + dim.Height - 2
			}
			heights[x][z] = height

			biome := g.biomes.BiomeAt(bx, bz)
			c.SetBiomeAt(x, dim.MinY, z, int32(biome))

			g.fillColumn(c, x, z, height, biome, dim)
		}
	}

	g.carveCaves(c, pos, heights, dim)
	g.ores.place(c, pos, heights, dim)

	c.Dirty = false
	return c, nil
}

func (g *OverworldGenerator) fillColumn(c *chunk.Chunk, x, z int, height int32, biome byte, dim dimension.Descriptor) {
	base := dim.MinY
	c.SetBlockAt(x, base, z, blockBedrock)
	for y := base + 1; y < height-4; y++ {
		c.SetBlockAt(x, y, z, blockStone)
	}

	switch biome {
	case biomeDesert, biomeBeach:
		for y := height - 4; y <= height; y++ {
			if y > base {
				c.SetBlockAt(x, y, z, blockSand)
			}
		}
	case biomeOcean:
		for y := height - 2; y <= height; y++ {
			if y > base {
				c.SetBlockAt(x, y, z, blockGravel)
			}
		}
		for y := height + 1; y <= int32(seaLevel); y++ {
			c.SetBlockAt(x, y, z, blockWater)
		}
	default:
		for y := height - 3; y < height; y++ {
			if y > base {
				c.SetBlockAt(x, y, z, blockDirt)
			}
		}
		if height > int32(seaLevel) {
			c.SetBlockAt(x, height, z, blockGrass)
		} else {
			c.SetBlockAt(x, height, z, blockDirt)
			for y := height + 1; y <= int32(seaLevel); y++ {
				c.SetBlockAt(x, y, z, blockWater)
			}
		}
	}
}

func (g *OverworldGenerator) carveCaves(c *chunk.Chunk, pos chunk.Pos, heights [16][16]int32, dim dimension.Descriptor) {
	const threshold = 0.55
	lavaLevel := dim.MinY + 10

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			bx := float64(int(pos.X)*16 + x)
			bz := float64(int(pos.Z)*16 + z)
			maxY := heights[x][z]
			if maxY < dim.MinY+5 {
				continue
			}
			for y := dim.MinY + 4; y < maxY-4; y++ {
				by := float64(y)
				n1 := g.cave1.Noise3D(bx/32.0, by/24.0, bz/32.0)
				n2 := g.cave2.Noise3D(bx/48.0, by/32.0, bz/48.0)
				density := (n1 + n2) / 2.0
				if density > threshold {
					if y < lavaLevel {
						c.SetBlockAt(x, y, z, blockLava)
					} else {
						c.SetBlockAt(x, y, z, blockAir)
					}
				}
			}
		}
	}
}
