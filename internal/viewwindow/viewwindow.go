// Package viewwindow implements the per-player view-window manager
// (C9): the set of chunks kept loaded around a moving player, and the
// spiral load/unload policy that runs on every chunk-boundary crossing.
// Grounded on the teacher's lack of any view-distance management at all
// (go-theft-craft-server streams a fixed radius with no incremental
// load/unload); the spiral ordering and Chebyshev-distance set algebra
// here are original to this implementation, following only the
// position-math conventions (mgl64.Vec3) the dragonfly and oomph
// example repos use for player state.
package viewwindow

import (
	"context"
	"log/slog"
	"sort"

	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ocraft/voxelserver/internal/chunk"
)

// Provider is the C6 cache's subset this package depends on: get a
// chunk (generating or loading it if absent) and release a pin when a
// chunk leaves every window that referenced it.
type Provider interface {
	Get(ctx context.Context, pos chunk.Pos) (*chunk.Chunk, error)
	Pin(pos chunk.Pos)
	Unpin(pos chunk.Pos)
}

// Sender delivers the Play-state packets this manager emits. Declared
// as an interface so this package never depends on the wire codec
// directly; internal/packetset provides the concrete implementation.
type Sender interface {
	UpdateViewPosition(cx, cz int32) error
	ChunkData(c *chunk.Chunk) error
	UnloadChunk(pos chunk.Pos) error
}

// packKey packs a ChunkPos into the single int64 key intintmap wants;
// the view-window's loaded-chunk set is exactly the case this
// dependency fits: positions span the full int32 range and are added
// and removed every tick as the player crosses chunk boundaries, so a
// direct array index (as internal/region uses for its fixed 1024-slot
// table) isn't available.
func packKey(pos chunk.Pos) int64 {
	return int64(uint64(uint32(pos.X)))<<32 | int64(uint64(uint32(pos.Z)))
}

// Window tracks one player's loaded chunk set and drives load/unload
// traffic as they move.
type Window struct {
	provider Provider
	sender   Sender
	log      *slog.Logger

	viewDistance int32
	loaded       *intintmap.Map // authoritative membership index, keyed by packKey
	order        []chunk.Pos    // enumeration mirror; intintmap exposes no range/iteration
	lastCX       int32
	lastCZ       int32
	hasLast      bool
}

// New builds a Window for one player session. viewDistance is clamped
// to [2, 32] per the configuration surface's documented range.
func New(provider Provider, sender Sender, viewDistance int32, log *slog.Logger) *Window {
	if viewDistance < 2 {
		viewDistance = 2
	}
	if viewDistance > 32 {
		viewDistance = 32
	}
	sideLen := int(2*viewDistance + 1)
	return &Window{
		provider:     provider,
		sender:       sender,
		log:          log,
		viewDistance: viewDistance,
		loaded:       intintmap.New(sideLen*sideLen, 0.75),
		order:        make([]chunk.Pos, 0, sideLen*sideLen),
	}
}

func (w *Window) isLoaded(p chunk.Pos) bool {
	_, ok := w.loaded.Get(packKey(p))
	return ok
}

// OnPositionUpdate runs §4.9's algorithm for a player's new world
// position. It is a no-op if the player hasn't crossed into a new
// chunk column since the last call.
func (w *Window) OnPositionUpdate(ctx context.Context, pos mgl64.Vec3) error {
	cx := floorDiv16(int32(pos.X()))
	cz := floorDiv16(int32(pos.Z()))
	if w.hasLast && cx == w.lastCX && cz == w.lastCZ {
		return nil
	}
	w.hasLast = true
	w.lastCX, w.lastCZ = cx, cz

	if err := w.sender.UpdateViewPosition(cx, cz); err != nil {
		return err
	}

	desired := desiredSet(cx, cz, w.viewDistance)

	toLoad := make([]chunk.Pos, 0, len(desired))
	for p := range desired {
		if !w.isLoaded(p) {
			toLoad = append(toLoad, p)
		}
	}
	sortBySpiral(toLoad, cx, cz)

	for _, p := range toLoad {
		c, err := w.provider.Get(ctx, p)
		if err != nil {
			w.log.Warn("view window: chunk generation failed, dropping from this update", "pos", p, "err", err)
			continue
		}
		w.provider.Pin(p)
		if err := w.sender.ChunkData(c); err != nil {
			w.provider.Unpin(p)
			return err
		}
		w.loaded.Put(packKey(p), 1)
		w.order = append(w.order, p)
	}

	kept := w.order[:0]
	for _, p := range w.order {
		if _, keep := desired[p]; keep {
			kept = append(kept, p)
			continue
		}
		if err := w.sender.UnloadChunk(p); err != nil {
			return err
		}
		w.provider.Unpin(p)
		w.loaded.Del(packKey(p))
	}
	w.order = kept

	return nil
}

// Close releases every chunk reference this window holds, for use when
// the owning Session is destroyed.
func (w *Window) Close() {
	for _, p := range w.order {
		w.provider.Unpin(p)
		w.loaded.Del(packKey(p))
	}
	w.order = w.order[:0]
}

// Len reports the number of currently loaded chunks, for tests and
// metrics.
func (w *Window) Len() int {
	return len(w.order)
}

func floorDiv16(v int32) int32 {
	if v >= 0 {
		return v >> 4
	}
	return -(((-v) + 15) >> 4)
}

func desiredSet(cx, cz, viewDistance int32) map[chunk.Pos]struct{} {
	out := make(map[chunk.Pos]struct{}, (2*viewDistance+1)*(2*viewDistance+1))
	for dx := -viewDistance; dx <= viewDistance; dx++ {
		for dz := -viewDistance; dz <= viewDistance; dz++ {
			if chebyshev(dx, dz) > viewDistance {
				continue
			}
			out[chunk.Pos{X: cx + dx, Z: cz + dz}] = struct{}{}
		}
	}
	return out
}

func chebyshev(dx, dz int32) int32 {
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// sortBySpiral orders positions by Chebyshev distance from (cx, cz)
// ascending, tie-broken by a right/down/left/up spiral sweep so the
// player's immediate surroundings load first, per §4.9 step 4.
func sortBySpiral(positions []chunk.Pos, cx, cz int32) {
	sort.SliceStable(positions, func(i, j int) bool {
		pi, pj := positions[i], positions[j]
		di := chebyshev(pi.X-cx, pi.Z-cz)
		dj := chebyshev(pj.X-cx, pj.Z-cz)
		if di != dj {
			return di < dj
		}
		return spiralRank(pi, cx, cz) < spiralRank(pj, cx, cz)
	})
}

// spiralRank gives each position on the same Chebyshev ring a rank
// following a right, down, left, up sweep, starting from due east of
// the center and proceeding clockwise.
func spiralRank(p chunk.Pos, cx, cz int32) int {
	dx, dz := p.X-cx, p.Z-cz
	switch {
	case dx >= 0 && dz >= 0:
		return 0*1_000_000 + int(dz)*1000 + int(dx) // right/down quadrant
	case dx < 0 && dz >= 0:
		return 1_000_000 + int(dz)*1000 - int(dx) // down/left quadrant
	case dx < 0 && dz < 0:
		return 2_000_000 - int(dz)*1000 - int(dx) // left/up quadrant
	default:
		return 3_000_000 - int(dz)*1000 + int(dx) // up/right quadrant
	}
}
