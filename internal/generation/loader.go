package generation

import (
	"context"

	"github.com/ocraft/voxelserver/internal/chunk"
)

// RegionLoader is satisfied by internal/region's reader: a chunk already
// persisted to disk should never be regenerated. Declared here, rather
// than depended on directly, so this package does not need to import
// region and region does not need to import generation.
type RegionLoader interface {
	LoadChunk(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, bool, error)
}

// FallbackLoader tries a RegionLoader first and only falls through to the
// Pipeline when the region has no data for that position yet, per §4.7's
// "region storage is consulted before generation is attempted."
type FallbackLoader struct {
	Region   RegionLoader
	Pipeline *Pipeline
}

func (f *FallbackLoader) Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	if f.Region != nil {
		if c, ok, err := f.Region.LoadChunk(ctx, pos); err != nil {
			return nil, err
		} else if ok {
			return c, nil
		}
	}
	return f.Pipeline.Load(ctx, pos)
}
