package session

import (
	"net"
	"testing"

	"github.com/google/uuid"

	"github.com/ocraft/voxelserver/internal/login"
	"github.com/ocraft/voxelserver/internal/protocolstate"
	"github.com/ocraft/voxelserver/internal/transport"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	tr := transport.New(server)
	st := protocolstate.New()
	id := &login.Identity{UUID: uuid.New(), Username: "Notch"}
	return New(tr, st, id), client
}

func TestNextTeleportIDIsMonotonicAndConfirmable(t *testing.T) {
	s, _ := newTestSession(t)

	first := s.NextTeleportID()
	second := s.NextTeleportID()
	if second != first+1 {
		t.Fatalf("teleport ids not monotonic: %d then %d", first, second)
	}
	if s.ConfirmTeleport(first) {
		t.Fatal("stale teleport id should not confirm once a newer one is outstanding")
	}
	if !s.ConfirmTeleport(second) {
		t.Fatal("current teleport id should confirm")
	}
	if s.ConfirmTeleport(second) {
		t.Fatal("a teleport id should not confirm twice")
	}
}

func TestCloseWithoutWindowIsNoop(t *testing.T) {
	s, _ := newTestSession(t)
	s.Close() // must not panic when Window was never assigned
}
