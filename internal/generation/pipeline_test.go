package generation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

// blockingGenerator only returns once release is closed, letting a test
// hold a worker busy to exercise queue back-pressure.
type blockingGenerator struct {
	release chan struct{}
	calls   atomic.Int64
}

func (g *blockingGenerator) Generate(ctx context.Context, seed int64, pos chunk.Pos, dim dimension.Descriptor) (*chunk.Chunk, error) {
	g.calls.Add(1)
	<-g.release
	return chunk.New(pos, dim), nil
}

func flatDim(t *testing.T) dimension.Descriptor {
	t.Helper()
	d, ok := dimension.Lookup("flat")
	if !ok {
		t.Fatal("flat dimension missing from embedded table")
	}
	return d
}

func TestLoadReturnsGeneratedChunk(t *testing.T) {
	dim := flatDim(t)
	p := New(1, dim, worldgenStub{}, WithWorkers(2), WithQueueSize(4))
	defer p.Close()

	c, err := p.Load(context.Background(), chunk.Pos{X: 1, Z: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Pos != (chunk.Pos{X: 1, Z: 2}) {
		t.Fatalf("got chunk for pos %v", c.Pos)
	}
}

func TestQueueBackPressureBlocksSubmission(t *testing.T) {
	dim := flatDim(t)
	gen := &blockingGenerator{release: make(chan struct{})}
	// One worker, queue of capacity one: the worker immediately pulls the
	// first job and blocks inside Generate, leaving the queue itself
	// able to hold exactly one more before a third submission blocks.
	p := New(1, dim, gen, WithWorkers(1), WithQueueSize(1))
	defer p.Close()

	var wg sync.WaitGroup
	started := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int32) {
			defer wg.Done()
			started <- struct{}{}
			_, _ = p.Load(context.Background(), chunk.Pos{X: i})
		}(int32(i))
	}

	for i := 0; i < 3; i++ {
		<-started
	}
	// Give the goroutines a moment to reach their channel sends; none of
	// the three Generate calls can have returned yet.
	time.Sleep(20 * time.Millisecond)
	if gen.calls.Load() == 0 {
		t.Fatal("expected at least one Generate call to have started")
	}
	if n := len(p.queue); n != cap(p.queue) {
		t.Fatalf("queue holds %d of %d jobs, want it full so the third submission blocks", n, cap(p.queue))
	}

	close(gen.release)
	wg.Wait()
}

func TestLoadRespectsCallerCancellationWithoutAbortingJob(t *testing.T) {
	dim := flatDim(t)
	gen := &blockingGenerator{release: make(chan struct{})}
	p := New(1, dim, gen, WithWorkers(1), WithQueueSize(1))
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Load(ctx, chunk.Pos{X: 9})
		done <- err
	}()

	// Wait until the worker has actually picked up the job, then cancel
	// the waiting caller; the job itself must keep running.
	for gen.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected Load to report the caller's own cancellation")
	}
	close(gen.release)
}

// worldgenStub is a trivial Generator used where the test only cares that
// a chunk comes back for the requested position.
type worldgenStub struct{}

func (worldgenStub) Generate(_ context.Context, _ int64, pos chunk.Pos, dim dimension.Descriptor) (*chunk.Chunk, error) {
	return chunk.New(pos, dim), nil
}
