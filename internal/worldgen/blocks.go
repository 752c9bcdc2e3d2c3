package worldgen

// Block and biome ids, grounded on the teacher's pkg/world/gen constant
// table. The dimension descriptor's registry size bounds these; they are
// placeholders for whatever concrete block/biome registry a deployment
// loads, the same role the teacher's 1.8 ids played for its fixed wire
// format.
const (
	blockAir       int32 = 0
	blockStone     int32 = 1
	blockGrass     int32 = 2
	blockDirt      int32 = 3
	blockBedrock   int32 = 7
	blockWater     int32 = 9
	blockSand      int32 = 12
	blockGravel    int32 = 13
	blockSandstone int32 = 24
	blockLava      int32 = 11

	blockCoalOre     int32 = 16
	blockIronOre     int32 = 15
	blockGoldOre     int32 = 14
	blockDiamondOre  int32 = 56
	blockRedstoneOre int32 = 73
	blockLapisOre    int32 = 21

	biomePlains byte = 1
	biomeOcean  byte = 0
	biomeDesert byte = 2
	biomeBeach  byte = 16

	seaLevel = 62
)
