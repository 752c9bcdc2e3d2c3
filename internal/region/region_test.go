package region

import (
	"context"
	"testing"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

func flatDim(t *testing.T) dimension.Descriptor {
	t.Helper()
	d, ok := dimension.Lookup("flat")
	if !ok {
		t.Fatal("flat dimension missing from embedded table")
	}
	return d
}

func TestFlushThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	dim := flatDim(t)

	c := chunk.New(chunk.Pos{X: 3, Z: 5}, dim)
	c.SetBlockAt(1, dim.MinY+1, 2, 7)
	c.SetBiomeAt(0, dim.MinY, 0, 4)

	rp := c.Pos.Region()
	if err := store.FlushRegion(context.Background(), rp, []*chunk.Chunk{c}); err != nil {
		t.Fatalf("FlushRegion: %v", err)
	}

	got, ok, err := store.LoadChunk(context.Background(), chunk.Pos{X: 3, Z: 5})
	if err != nil {
		t.Fatalf("LoadChunk: %v", err)
	}
	if !ok {
		t.Fatal("expected chunk to be found after flush")
	}
	if got.BlockAt(1, dim.MinY+1, 2) != 7 {
		t.Fatalf("block not preserved: got %d", got.BlockAt(1, dim.MinY+1, 2))
	}
}

func TestLoadMissingChunkFallsThroughCleanly(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, ok, err := store.LoadChunk(context.Background(), chunk.Pos{X: 100, Z: 100})
	if err != nil {
		t.Fatalf("LoadChunk: %v", err)
	}
	if ok {
		t.Fatal("expected no chunk for an empty region directory")
	}
}

func TestFlushPreservesSlotsNotInCurrentBatch(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	dim := flatDim(t)

	a := chunk.New(chunk.Pos{X: 0, Z: 0}, dim)
	b := chunk.New(chunk.Pos{X: 1, Z: 0}, dim)
	rp := a.Pos.Region()

	if err := store.FlushRegion(context.Background(), rp, []*chunk.Chunk{a, b}); err != nil {
		t.Fatalf("first flush: %v", err)
	}

	// A second flush only re-persists `a` (as if `b` had been evicted
	// from the cache already and is no longer dirty); `b`'s slot must
	// survive on disk.
	a.SetBlockAt(0, dim.MinY+1, 0, 9)
	if err := store.FlushRegion(context.Background(), rp, []*chunk.Chunk{a}); err != nil {
		t.Fatalf("second flush: %v", err)
	}

	got, ok, err := store.LoadChunk(context.Background(), chunk.Pos{X: 1, Z: 0})
	if err != nil || !ok {
		t.Fatalf("expected chunk b to still be present: ok=%v err=%v", ok, err)
	}
	if got.Pos != (chunk.Pos{X: 1, Z: 0}) {
		t.Fatalf("got wrong chunk back: %v", got.Pos)
	}
}
