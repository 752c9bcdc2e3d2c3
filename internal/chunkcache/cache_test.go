package chunkcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

func flatDim(t *testing.T) dimension.Descriptor {
	d, ok := dimension.Lookup("flat")
	if !ok {
		t.Fatal("embedded dimension table missing \"flat\"")
	}
	return d
}

type countingLoader struct {
	dim   dimension.Descriptor
	calls atomic.Int64
}

func (l *countingLoader) Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	l.calls.Add(1)
	return chunk.New(pos, l.dim), nil
}

type noopPersister struct{}

func (noopPersister) FlushRegion(ctx context.Context, region chunk.RegionPos, chunks []*chunk.Chunk) error {
	return nil
}

func TestGetCoalescesConcurrentMisses(t *testing.T) {
	dim := flatDim(t)
	loader := &countingLoader{dim: dim}
	c := New(context.Background(), loader, noopPersister{}, DefaultInitialBudget, nil)
	defer c.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), chunk.Pos{X: 7, Z: 7}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want exactly 1 (at-most-one-in-flight)", got)
	}
}

func TestEvictionPrefersLowestHitCount(t *testing.T) {
	dim := flatDim(t)
	loader := &countingLoader{dim: dim}
	// Budget fits exactly two chunks' worth of the estimated size.
	c := New(context.Background(), loader, noopPersister{}, estimatedChunkBytes*2, nil)
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Get(ctx, chunk.Pos{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, chunk.Pos{X: 1, Z: 0}); err != nil {
		t.Fatal(err)
	}
	// Access {0,0} again so it has a higher hit count than {1,0}.
	if _, err := c.Get(ctx, chunk.Pos{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	// Inserting a third chunk must evict {1,0}, the lowest hit count.
	if _, err := c.Get(ctx, chunk.Pos{X: 2, Z: 0}); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", c.Len())
	}
	if _, ok := c.entries[chunk.Pos{X: 1, Z: 0}]; ok {
		t.Fatal("expected {1,0} to have been evicted")
	}
	if _, ok := c.entries[chunk.Pos{X: 0, Z: 0}]; !ok {
		t.Fatal("expected {0,0} (higher hit count) to survive eviction")
	}
}

func TestPinPreventsEviction(t *testing.T) {
	dim := flatDim(t)
	loader := &countingLoader{dim: dim}
	c := New(context.Background(), loader, noopPersister{}, estimatedChunkBytes*2, nil)
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Get(ctx, chunk.Pos{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}
	c.Pin(chunk.Pos{X: 0, Z: 0})

	if _, err := c.Get(ctx, chunk.Pos{X: 1, Z: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, chunk.Pos{X: 2, Z: 0}); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.entries[chunk.Pos{X: 0, Z: 0}]; !ok {
		t.Fatal("pinned entry must not be evicted")
	}
}

func TestFlushOnlyPersistsDirtyChunksAndClearsFlag(t *testing.T) {
	dim := flatDim(t)
	loader := &countingLoader{dim: dim}
	c := New(context.Background(), loader, noopPersister{}, DefaultMaxBudget, nil)
	defer c.Close()

	ctx := context.Background()
	ch, err := c.Get(ctx, chunk.Pos{X: 3, Z: 3})
	if err != nil {
		t.Fatal(err)
	}
	ch.SetBlockAt(0, 0, 0, 1)
	if !ch.Dirty {
		t.Fatal("expected chunk to be dirty after mutation")
	}

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if ch.Dirty {
		t.Fatal("expected dirty flag cleared after flush")
	}
}
