package viewwindow

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/dimension"
)

type stubProvider struct {
	dim     dimension.Descriptor
	pins    map[chunk.Pos]int
	failing map[chunk.Pos]bool
}

func newStubProvider(dim dimension.Descriptor) *stubProvider {
	return &stubProvider{dim: dim, pins: map[chunk.Pos]int{}, failing: map[chunk.Pos]bool{}}
}

func (p *stubProvider) Get(_ context.Context, pos chunk.Pos) (*chunk.Chunk, error) {
	if p.failing[pos] {
		return nil, io.ErrUnexpectedEOF
	}
	return chunk.New(pos, p.dim), nil
}

func (p *stubProvider) Pin(pos chunk.Pos)   { p.pins[pos]++ }
func (p *stubProvider) Unpin(pos chunk.Pos) { p.pins[pos]-- }

type recordingSender struct {
	loaded    []chunk.Pos
	unloaded  []chunk.Pos
	positions []([2]int32)
}

func (s *recordingSender) UpdateViewPosition(cx, cz int32) error {
	s.positions = append(s.positions, [2]int32{cx, cz})
	return nil
}

func (s *recordingSender) ChunkData(c *chunk.Chunk) error {
	s.loaded = append(s.loaded, c.Pos)
	return nil
}

func (s *recordingSender) UnloadChunk(pos chunk.Pos) error {
	s.unloaded = append(s.unloaded, pos)
	return nil
}

func testDim(t *testing.T) dimension.Descriptor {
	t.Helper()
	d, ok := dimension.Lookup("flat")
	if !ok {
		t.Fatal("flat dimension missing from embedded table")
	}
	return d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitialLoadCoversViewDistanceWindow(t *testing.T) {
	dim := testDim(t)
	provider := newStubProvider(dim)
	sender := &recordingSender{}
	w := New(provider, sender, 2, discardLogger())

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{0, 64, 0}); err != nil {
		t.Fatalf("OnPositionUpdate: %v", err)
	}

	wantCount := 5 * 5
	if w.Len() != wantCount {
		t.Fatalf("expected %d loaded chunks, got %d", wantCount, w.Len())
	}
	if len(sender.loaded) != wantCount {
		t.Fatalf("expected %d ChunkData sends, got %d", wantCount, len(sender.loaded))
	}
	if len(sender.unloaded) != 0 {
		t.Fatalf("expected no unloads on first update, got %d", len(sender.unloaded))
	}
}

func TestMovingOneColumnShiftsExactlyOneEdge(t *testing.T) {
	dim := testDim(t)
	provider := newStubProvider(dim)
	sender := &recordingSender{}
	w := New(provider, sender, 3, discardLogger())

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{0, 64, 0}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	sender.loaded = nil
	sender.unloaded = nil

	// Moving by exactly one chunk (16 blocks) shifts the window by one
	// column: dx=-3 unloads, dx=+4 loads, both 7 chunks, per §5's
	// worked view-window-movement example.
	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{16, 64, 0}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if len(sender.loaded) != 7 {
		t.Fatalf("expected 7 newly loaded chunks, got %d", len(sender.loaded))
	}
	if len(sender.unloaded) != 7 {
		t.Fatalf("expected 7 unloaded chunks, got %d", len(sender.unloaded))
	}
	for _, p := range sender.unloaded {
		if p.X != -3 {
			t.Fatalf("expected only column dx=-3 to unload, got %v", p)
		}
	}
	for _, p := range sender.loaded {
		if p.X != 4 {
			t.Fatalf("expected only column dx=+4 to load, got %v", p)
		}
	}
}

func TestSameColumnPositionUpdateIsNoOp(t *testing.T) {
	dim := testDim(t)
	provider := newStubProvider(dim)
	sender := &recordingSender{}
	w := New(provider, sender, 2, discardLogger())

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{1, 64, 1}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	sender.loaded = nil
	sender.unloaded = nil
	sender.positions = nil

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{5, 64, 5}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(sender.positions) != 0 || len(sender.loaded) != 0 || len(sender.unloaded) != 0 {
		t.Fatal("expected no-op when staying within the same chunk column")
	}
}

func TestGenerationFailureDropsPositionWithoutDisconnecting(t *testing.T) {
	dim := testDim(t)
	provider := newStubProvider(dim)
	provider.failing[chunk.Pos{X: 0, Z: 0}] = true
	sender := &recordingSender{}
	w := New(provider, sender, 2, discardLogger())

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{0, 64, 0}); err != nil {
		t.Fatalf("expected the failure to be absorbed, got error: %v", err)
	}
	// Every position in the 5x5 window except the one forced to fail
	// should still have loaded.
	if want := 5*5 - 1; w.Len() != want {
		t.Fatalf("expected %d loaded chunks (all but the failed one), got %d", want, w.Len())
	}
	for _, p := range sender.loaded {
		if p == (chunk.Pos{X: 0, Z: 0}) {
			t.Fatal("the failed position must not have been sent as ChunkData")
		}
	}
}

func TestCloseReleasesAllPins(t *testing.T) {
	dim := testDim(t)
	provider := newStubProvider(dim)
	sender := &recordingSender{}
	w := New(provider, sender, 1, discardLogger())

	if err := w.OnPositionUpdate(context.Background(), mgl64.Vec3{0, 64, 0}); err != nil {
		t.Fatalf("update: %v", err)
	}
	w.Close()

	for pos, count := range provider.pins {
		if count != 0 {
			t.Fatalf("expected pin count 0 for %v after Close, got %d", pos, count)
		}
	}
	if w.Len() != 0 {
		t.Fatalf("expected Len() 0 after Close, got %d", w.Len())
	}
}
