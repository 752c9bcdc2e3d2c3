package packetset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func roundTrip[T Packet](t *testing.T, p T, out T) {
	t.Helper()
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
}

func TestClientInformationRoundTrip(t *testing.T) {
	in := &ClientInformation{
		Locale:              "en_US",
		ViewDistance:        12,
		ChatMode:            0,
		ChatColors:          true,
		DisplayedSkinParts:  0x7f,
		MainHand:            1,
		TextFiltering:       false,
		AllowServerListings: true,
	}
	out := &ClientInformation{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinGameRoundTrip(t *testing.T) {
	in := &JoinGame{
		EntityID:            7,
		GameMode:            1,
		DimensionName:       "overworld",
		HashedSeed:          -42,
		ViewDistance:        10,
		SimulationDistance:  10,
		ReducedDebugInfo:    false,
		EnableRespawnScreen: true,
		IsFlat:              false,
	}
	out := &JoinGame{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSynchronizePlayerPositionRoundTrip(t *testing.T) {
	in := &SynchronizePlayerPosition{
		TeleportID: 3,
		X:          10.5,
		Y:          64,
		Z:          -3.25,
		Yaw:        90,
		Pitch:      -12.5,
		Flags:      0,
	}
	out := &SynchronizePlayerPosition{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateViewPositionRoundTrip(t *testing.T) {
	in := &UpdateViewPosition{ChunkX: -5, ChunkZ: 100}
	out := &UpdateViewPosition{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPluginMessageCapturesRest(t *testing.T) {
	in := &PluginMessage{Channel: "minecraft:brand", Data: []byte("voxelserver")}
	out := &PluginMessage{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFinishConfigurationHasNoFields(t *testing.T) {
	data, err := Marshal(&FinishConfiguration{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(data))
	}
}

func TestHandshakeRoundTrip(t *testing.T) {
	in := &Handshake{ProtocolVersion: 769, ServerAddress: "localhost", ServerPort: 25565, NextState: 2}
	out := &Handshake{}
	roundTrip(t, in, out)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
