package worldgen

// BiomeGenerator selects biomes from terrain-height and temperature noise
// fields, adapted from the teacher's pkg/world/gen/biome.go. rainNoise is
// constructed but not read by BiomeAt.
type BiomeGenerator struct {
	tempNoise *NoiseGenerator
	rainNoise *NoiseGenerator
	terrain   *NoiseGenerator
}

func NewBiomeGenerator(seed int64) *BiomeGenerator {
	return &BiomeGenerator{
		tempNoise: NewNoiseGenerator(seed + 100),
		rainNoise: NewNoiseGenerator(seed + 200),
		terrain:   NewNoiseGenerator(seed),
	}
}

// BiomeAt returns the biome id at the given world block coordinates.
func (bg *BiomeGenerator) BiomeAt(bx, bz int) byte {
	nx := float64(bx) / 128.0
	nz := float64(bz) / 128.0
	terrainBase := bg.terrain.OctaveNoise2D(nx, nz, 6, 0.5)
	terrainHeight := 62.0 + terrainBase*8.0

	if terrainHeight < float64(seaLevel)-8 {
		return biomeOcean
	}
	if terrainHeight >= float64(seaLevel)-8 && terrainHeight < float64(seaLevel)-2 {
		return biomeBeach
	}

	tx := bx
	tz := bz
	temp := bg.tempNoise.OctaveNoise2D(float64(tx)/512.0, float64(tz)/512.0, 4, 0.5)
	if temp > 0.3 {
		return biomeDesert
	}
	return biomePlains
}
