package worldgen

import (
	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

// oreGenerator scatters ore veins in stone using seeded per-chunk RNG,
// adapted from the teacher's pkg/world/gen/ores.go random-walk vein
// algorithm.
type oreGenerator struct {
	seed int64
}

func newOreGenerator(seed int64) *oreGenerator {
	return &oreGenerator{seed: seed}
}

type oreConfig struct {
	block    int32
	minY     int32
	maxY     int32
	veinSize int
	attempts int
}

func (g *oreGenerator) place(c *chunk.Chunk, pos chunk.Pos, heights [16][16]int32, dim dimension.Descriptor) {
	ores := []oreConfig{
		{blockCoalOre, dim.MinY, dim.MinY + 128, 12, 20},
		{blockIronOre, dim.MinY, dim.MinY + 64, 8, 20},
		{blockGoldOre, dim.MinY, dim.MinY + 32, 8, 2},
		{blockDiamondOre, dim.MinY, dim.MinY + 16, 6, 1},
		{blockRedstoneOre, dim.MinY, dim.MinY + 16, 6, 8},
		{blockLapisOre, dim.MinY, dim.MinY + 32, 6, 1},
	}

	rng := newChunkRNG(g.seed, int(pos.X), int(pos.Z), 500)
	for _, ore := range ores {
		span := ore.maxY - ore.minY
		if span <= 0 {
			continue
		}
		for i := 0; i < ore.attempts; i++ {
			x := rng.nextN(16)
			y := ore.minY + int32(rng.nextN(int(span)))
			z := rng.nextN(16)
			if y >= heights[x][z] {
				continue
			}
			g.placeVein(c, x, y, z, ore.block, ore.veinSize, heights, rng)
		}
	}
}

func (g *oreGenerator) placeVein(c *chunk.Chunk, cx int, cy int32, cz int, blockID int32, size int, heights [16][16]int32, rng *chunkRNG) {
	for i := 0; i < size; i++ {
		if cx >= 0 && cx < 16 && cz >= 0 && cz < 16 && cy >= c.Dim.MinY+1 && cy < heights[cx][cz] {
			if c.BlockAt(cx, cy, cz) == blockStone {
				c.SetBlockAt(cx, cy, cz, blockID)
			}
		}
		switch rng.nextN(6) {
		case 0:
			cx++
		case 1:
			cx--
		case 2:
			cy++
		case 3:
			cy--
		case 4:
			cz++
		case 5:
			cz--
		}
	}
}

// chunkRNG is a simple deterministic RNG for per-chunk generation.
type chunkRNG struct {
	state int64
}

func newChunkRNG(seed int64, cx, cz int, salt int64) *chunkRNG {
	s := seed ^ (int64(cx)*341873128712 + int64(cz)*132897987541 + salt)
	return &chunkRNG{state: s}
}

func (r *chunkRNG) next() int64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *chunkRNG) nextN(n int) int {
	v := int(r.next()>>33) % n
	if v < 0 {
		v = -v
	}
	return v
}
