// Package session holds the per-connection state the specification's
// data model (§3) attaches to a Session: protocol state, authenticated
// identity, view window, and the teleport-confirmation sequence. It is
// the thing internal/server/conn's driver owns for the lifetime of one
// accepted TCP connection, past the point login.Run hands back an
// Identity.
package session

import (
	"fmt"
	"sync/atomic"

	"github.com/ocraft/voxelserver/internal/chunk"
	"github.com/ocraft/voxelserver/internal/login"
	"github.com/ocraft/voxelserver/internal/metrics"
	"github.com/ocraft/voxelserver/internal/packetset"
	"github.com/ocraft/voxelserver/internal/protocolstate"
	"github.com/ocraft/voxelserver/internal/transport"
	"github.com/ocraft/voxelserver/internal/viewwindow"
)

// Session owns one connection's post-login state. Its cipher pair and
// compression threshold (also named in §3's data model) live inside
// Transport rather than being duplicated here, since Transport is
// already the thing that owns those one-way filter transitions (§4.2).
type Session struct {
	Transport *transport.Transport
	State     *protocolstate.Machine
	Identity  *login.Identity

	// Window is nil until the Configuration stage negotiates a view
	// distance and the driver constructs it; a connection that never
	// reaches Play never gets one.
	Window *viewwindow.Window

	teleportSeq     atomic.Int32
	pendingTeleport atomic.Int32
}

// New builds a Session for a connection that has completed login.
func New(tr *transport.Transport, state *protocolstate.Machine, id *login.Identity) *Session {
	return &Session{Transport: tr, State: state, Identity: id}
}

// NextTeleportID allocates the id for the next SynchronizePlayerPosition
// and records it as the outstanding id a later TeleportConfirm must
// match, per §3's "per-connection sequence counters for teleport
// confirmation".
func (s *Session) NextTeleportID() int32 {
	id := s.teleportSeq.Add(1)
	s.pendingTeleport.Store(id)
	return id
}

// ConfirmTeleport reports whether id matches the one outstanding
// teleport, consuming it on a match so a repeated confirm can't match
// twice; a non-matching id leaves the outstanding one in place.
func (s *Session) ConfirmTeleport(id int32) bool {
	return s.pendingTeleport.CompareAndSwap(id, 0)
}

// UpdateViewPosition, ChunkData, and UnloadChunk implement
// viewwindow.Sender, writing through this session's Transport so
// internal/viewwindow never depends on the wire codec directly.
func (s *Session) UpdateViewPosition(cx, cz int32) error {
	payload, err := packetset.Marshal(&packetset.UpdateViewPosition{ChunkX: cx, ChunkZ: cz})
	if err != nil {
		return err
	}
	return s.Transport.WriteFrame(packetset.PacketUpdateViewPosition, payload)
}

func (s *Session) ChunkData(c *chunk.Chunk) error {
	payload, err := packetset.EncodeChunkData(c)
	if err != nil {
		return fmt.Errorf("encode chunk data %v: %w", c.Pos, err)
	}
	if err := s.Transport.WriteFrame(packetset.PacketChunkData, payload); err != nil {
		return err
	}
	metrics.Global.ChunksServed.Add(1)
	return nil
}

func (s *Session) UnloadChunk(pos chunk.Pos) error {
	payload, err := packetset.Marshal(&packetset.UnloadChunk{ChunkX: pos.X, ChunkZ: pos.Z})
	if err != nil {
		return err
	}
	return s.Transport.WriteFrame(packetset.PacketUnloadChunk, payload)
}

// Close releases the view window's chunk pins. A connection that closed
// before Play has no window and this is a no-op.
func (s *Session) Close() {
	if s.Window != nil {
		s.Window.Close()
	}
}
