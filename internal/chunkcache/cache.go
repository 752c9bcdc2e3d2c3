// Package chunkcache implements the chunk cache (C6): a memory-budgeted
// map from chunk position to chunk, with hit-count/LRU eviction via an
// O(log n) priority heap, at-most-one-in-flight-generation-per-position
// deduplication, and bulk flush grouped by region. Grounded on the
// teacher's in-memory player/world registries for the concurrency shape
// (a single mutex guarding a map, short critical sections) generalized to
// the spec's eviction and pending-generation requirements, which the
// teacher's fixed, never-evicted world store had no need for.
package chunkcache

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/errs"
	"github.com/ocraft/voxelserver/internal/metrics"
)

const (
	// DefaultInitialBudget is the cache's starting byte budget, §4.6.
	DefaultInitialBudget = 256 << 20
	// DefaultMaxBudget is the configured ceiling a deployment may raise
	// the budget towards, §4.6.
	DefaultMaxBudget = 2 << 30

	hitCounterResetInterval = 300 * time.Second
)

// estimatedChunkBytes approximates one resident chunk's footprint for
// budget accounting: a tenth of the size of 24 sections of 4096 four-byte
// entries.
const estimatedChunkBytes = 24 * 16 * 4096 * 4 / 10 // rough amortized average, not a hard bound

// Loader resolves a cache miss, trying region storage (C8) before falling
// through to generation (C7). The cache depends on this interface rather
// than on either concrete package, keeping C6 decoupled from both per the
// component boundaries in §4.
type Loader interface {
	Load(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error)
}

// Persister durably stores a batch of chunks belonging to one region in a
// single call, satisfying the bulk-flush batching property of §4.8.
type Persister interface {
	FlushRegion(ctx context.Context, region chunk.RegionPos, chunks []*chunk.Chunk) error
}

type entry struct {
	pos           chunk.Pos
	chunk         *chunk.Chunk
	hits          int64
	accessOrdinal int64
	pinCount      int32
	sizeBytes     int64
	heapIndex     int // -1 when not in the eviction heap (pinned)
}

// Cache is the concurrent ChunkPos -> chunk map described in §4.6.
type Cache struct {
	log       *slog.Logger
	loader    Loader
	persister Persister

	mu        sync.Mutex
	entries   map[chunk.Pos]*entry
	heap      evictHeap
	nextSeq   int64
	sizeBytes int64
	maxBytes  int64

	inflight singleflight.Group

	cancelReset context.CancelFunc
	resetDone   chan struct{}
}

// New creates a Cache with the given byte budget. A background task reset
// to zero every 300s starts immediately and stops when ctx is done.
func New(ctx context.Context, loader Loader, persister Persister, maxBytes int64, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultInitialBudget
	}
	resetCtx, cancel := context.WithCancel(ctx)
	c := &Cache{
		log:         log,
		loader:      loader,
		persister:   persister,
		entries:     make(map[chunk.Pos]*entry),
		maxBytes:    maxBytes,
		cancelReset: cancel,
		resetDone:   make(chan struct{}),
	}
	go c.resetHitCountersLoop(resetCtx)
	return c
}

// Close stops the background hit-counter reset task and waits for it to
// exit, so a server shutdown never leaves the task running past the
// cache's own lifetime.
func (c *Cache) Close() {
	c.cancelReset()
	<-c.resetDone
}

func (c *Cache) resetHitCountersLoop(ctx context.Context) {
	defer close(c.resetDone)
	ticker := time.NewTicker(hitCounterResetInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			for _, e := range c.entries {
				e.hits = 0
			}
			if len(c.heap) > 0 {
				heap.Init(&c.heap)
			}
			c.mu.Unlock()
		}
	}
}

// Get returns the chunk at pos, resolving a miss via the Loader and
// coalescing concurrent misses for the same position into a single
// in-flight call, satisfying the at-most-one-in-flight-generation
// invariant. Cancellation of ctx does not cancel a miss already in
// flight for pos: another caller's successful load still completes and
// is inserted, per §4.7's "cancellation does not cancel the job".
func (c *Cache) Get(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	c.mu.Lock()
	if e, ok := c.entries[pos]; ok {
		c.touch(e)
		ch := e.chunk
		c.mu.Unlock()
		return ch, nil
	}
	c.mu.Unlock()

	// The shared load+insert runs with a detached context: this waiter's
	// ctx must not cancel a job other concurrent Get callers for the same
	// pos are also waiting on, and per §4.7 cancelling a waiter must not
	// cancel the generation job or skip inserting its result.
	key := fmt.Sprintf("%d:%d", pos.X, pos.Z)
	type outcome struct {
		chunk *chunk.Chunk
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err, _ := c.inflight.Do(key, func() (any, error) {
			ch, err := c.loader.Load(context.Background(), pos)
			if err != nil {
				return nil, err
			}
			if ierr := c.Insert(ch); ierr != nil {
				return nil, ierr
			}
			return ch, nil
		})
		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{chunk: v.(*chunk.Chunk)}
	}()

	select {
	case o := <-done:
		return o.chunk, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// touch records an access: increments the hit counter, advances the
// access ordinal, and re-heapifies the entry's position if it is
// currently evictable. Must be called with c.mu held.
func (c *Cache) touch(e *entry) {
	e.hits++
	c.nextSeq++
	e.accessOrdinal = c.nextSeq
	if e.heapIndex >= 0 {
		heap.Fix(&c.heap, e.heapIndex)
	}
}

// Insert adds chunk to the cache, evicting lowest-priority entries until
// the budget is respected. It returns CapacityExhausted if eviction
// cannot make room because every other entry is pinned.
func (c *Cache) Insert(ch *chunk.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := ch.Pos
	if existing, ok := c.entries[pos]; ok {
		c.sizeBytes -= existing.sizeBytes
		existing.chunk = ch
		existing.sizeBytes = estimatedChunkBytes
		c.sizeBytes += existing.sizeBytes
		c.touch(existing)
		return c.evictUntilUnderBudget(pos)
	}

	c.nextSeq++
	e := &entry{
		pos:           pos,
		chunk:         ch,
		accessOrdinal: c.nextSeq,
		sizeBytes:     estimatedChunkBytes,
		heapIndex:     -1,
	}
	c.entries[pos] = e
	heap.Push(&c.heap, e)
	c.sizeBytes += e.sizeBytes

	return c.evictUntilUnderBudget(pos)
}

// evictUntilUnderBudget must be called with c.mu held. protectedPos is
// never evicted even if it would otherwise be the lowest-priority entry,
// since it is the entry the caller just inserted or refreshed.
func (c *Cache) evictUntilUnderBudget(protectedPos chunk.Pos) error {
	for c.sizeBytes > c.maxBytes && len(c.heap) > 0 {
		victim := c.heap[0]
		if victim.pos == protectedPos {
			if len(c.heap) == 1 {
				break
			}
			// Temporarily pop and reinsert the protected entry last so a
			// real victim can be chosen; cheap since heaps this small
			// amortize fine, and eviction under budget pressure is rare.
			heap.Pop(&c.heap)
			defer heap.Push(&c.heap, victim)
			continue
		}
		heap.Pop(&c.heap)
		delete(c.entries, victim.pos)
		c.sizeBytes -= victim.sizeBytes
	}
	if c.sizeBytes > c.maxBytes {
		metrics.Global.CapacityExhausted.Add(1)
		return &errs.CapacityExhausted{Pos: protectedPos}
	}
	return nil
}

// Pin marks pos non-evictable, for chunks referenced by an active
// view-window per §4.6. Pin/Unpin calls nest: the entry becomes evictable
// again only once the pin count returns to zero.
func (c *Cache) Pin(pos chunk.Pos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[pos]
	if !ok {
		return
	}
	e.pinCount++
	if e.heapIndex >= 0 {
		heap.Remove(&c.heap, e.heapIndex)
		e.heapIndex = -1
	}
}

// Unpin releases one pin on pos, returning it to the eviction heap once
// the pin count reaches zero.
func (c *Cache) Unpin(pos chunk.Pos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[pos]
	if !ok || e.pinCount == 0 {
		return
	}
	e.pinCount--
	if e.pinCount == 0 && e.heapIndex < 0 {
		heap.Push(&c.heap, e)
	}
}

// Flush serializes all dirty entries and persists them via Persister in
// bulk, grouped by region, per §4.8's batching requirement.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	groups := make(map[chunk.RegionPos][]*chunk.Chunk)
	for _, e := range c.entries {
		if e.chunk.Dirty {
			groups[e.pos.Region()] = append(groups[e.pos.Region()], e.chunk)
		}
	}
	c.mu.Unlock()

	for region, chunks := range groups {
		if err := c.persister.FlushRegion(ctx, region, chunks); err != nil {
			return &errs.Io{Scope: fmt.Sprintf("flush region %v", region), Err: err}
		}
		for _, ch := range chunks {
			ch.Dirty = false
		}
	}
	return nil
}

// Len reports the number of resident entries, mainly for tests and
// metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
