package region

import (
	"context"
	"fmt"
	"sync"

	"github.com/ocraft/voxelserver/internal/chunk"
)

// Store owns the on-disk region directory and serializes writers per
// region file, per the spec's "region files are serialized through a
// per-region mutex during flush" policy.
type Store struct {
	dir string

	mu      sync.Mutex
	regions map[chunk.RegionPos]*sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, regions: make(map[chunk.RegionPos]*sync.Mutex)}
}

func (s *Store) lockFor(rp chunk.RegionPos) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.regions[rp]
	if !ok {
		m = &sync.Mutex{}
		s.regions[rp] = m
	}
	return m
}

func (s *Store) path(rp chunk.RegionPos) string {
	return fmt.Sprintf("%s/region_%d_%d.dat", s.dir, rp.X, rp.Z)
}

// LoadChunk implements generation.RegionLoader: a chunk absent from the
// region file (ok=false, err=nil) falls through to generation, per
// §4.8's read path.
func (s *Store) LoadChunk(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, bool, error) {
	rp := pos.Region()
	lock := s.lockFor(rp)
	lock.Lock()
	defer lock.Unlock()

	_, blobs, err := readRegionFile(s.path(rp))
	if err != nil {
		return nil, false, err
	}

	blob := blobs[localSlot(pos)]
	if blob == nil {
		return nil, false, nil
	}
	raw, err := decompress(blob)
	if err != nil {
		return nil, false, fmt.Errorf("region: decompress chunk %v: %w", pos, err)
	}
	c, err := decodeChunk(raw)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// FlushRegion implements chunkcache.Persister: dirty chunks belonging
// to one region are merged into that region's existing slot table and
// the file rewritten once, preserving slots not present in this batch
// (chunks evicted from the cache in an earlier flush must not be lost
// just because they aren't dirty again this time).
func (s *Store) FlushRegion(ctx context.Context, rp chunk.RegionPos, chunks []*chunk.Chunk) error {
	lock := s.lockFor(rp)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(rp)
	_, blobs, err := readRegionFile(path)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		if c.Pos.Region() != rp {
			return fmt.Errorf("region: chunk %v does not belong to region %v", c.Pos, rp)
		}
		raw, err := encodeChunk(c)
		if err != nil {
			return err
		}
		compressed, err := compress(raw)
		if err != nil {
			return fmt.Errorf("region: compress chunk %v: %w", c.Pos, err)
		}
		blobs[localSlot(c.Pos)] = compressed
	}

	return writeRegionFile(path, blobs)
}
