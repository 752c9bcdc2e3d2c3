package login

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/google/uuid"

	"github.com/ocraft/voxelserver/internal/proto"
	"github.com/ocraft/voxelserver/internal/transport"
)

func writeLoginStart(t *testing.T, tr *transport.Transport, username string) {
	t.Helper()
	var buf bytes.Buffer
	if _, err := proto.WriteString(&buf, username); err != nil {
		t.Fatal(err)
	}
	if err := proto.WriteUUID(&buf, uuid.Nil); err != nil {
		t.Fatal(err)
	}
	if err := tr.WriteFrame(PacketLoginStart, buf.Bytes()); err != nil {
		t.Fatal(err)
	}
}

func TestOfflineLoginSucceedsAndAdvances(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientTr := transport.New(clientConn)
	serverTr := transport.New(serverConn)

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		writeLoginStart(t, clientTr, "Notch")
		if _, _, err := clientTr.ReadFrame(); err != nil {
			t.Errorf("read login success: %v", err)
			return
		}
		var ackBuf bytes.Buffer
		if err := clientTr.WriteFrame(PacketLoginAcknowledged, ackBuf.Bytes()); err != nil {
			t.Errorf("write login acknowledged: %v", err)
		}
	}()

	identity, err := Run(context.Background(), serverTr, Config{
		OnlineMode:           false,
		CompressionThreshold: -1,
	})
	<-clientDone
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if identity.Username != "Notch" {
		t.Fatalf("username = %q, want Notch", identity.Username)
	}
}
