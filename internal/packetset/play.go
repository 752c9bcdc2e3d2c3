package packetset

import "github.com/google/uuid"

// Play-state packet ids. The public reference assigns a great many more
// than this server speaks; §6 pins only the ones the core streaming
// engine and its state machine actually touch, so only those get a
// concrete struct here. ChunkData is declared alongside these ids but
// encoded by hand in chunkdata.go.
const (
	PacketJoinGame                  = 0x01 // clientbound
	PacketSpawnPosition              = 0x02 // clientbound
	PacketSynchronizePlayerPosition  = 0x03 // clientbound
	PacketUpdateViewPosition         = 0x04 // clientbound
	PacketChunkData                  = 0x05 // clientbound, see chunkdata.go
	PacketUnloadChunk                = 0x06 // clientbound
	PacketEntityEvent                = 0x07 // clientbound
	PacketBlockEvent                 = 0x08 // clientbound
	PacketPlayDisconnect              = 0x09 // clientbound
	PacketKeepAliveClientbound       = 0x0A // clientbound
	PacketPlayPluginMessage          = 0x0B // clientbound/serverbound

	PacketTeleportConfirm            = 0x00 // serverbound
	PacketSetPlayerPosition           = 0x01 // serverbound
	PacketSetPlayerPositionAndRotation = 0x02 // serverbound
	PacketSetPlayerRotation          = 0x03 // serverbound
	PacketKeepAliveServerbound       = 0x04 // serverbound
)

// JoinGame starts the Play state. Real 1.21.7 JoinGame additionally
// carries registry/feature-flag data the Configuration exchange already
// settled; this implementation keeps only the fields the core streaming
// engine and a minimal client need to render a world, per §1's "concrete
// gameplay... out of scope" boundary.
type JoinGame struct {
	EntityID             int32  `mc:"i32"`
	GameMode             uint8  `mc:"u8"`
	DimensionName        string `mc:"string"`
	HashedSeed           int64  `mc:"i64"`
	ViewDistance         int32  `mc:"varint"`
	SimulationDistance   int32  `mc:"varint"`
	ReducedDebugInfo     bool   `mc:"bool"`
	EnableRespawnScreen  bool   `mc:"bool"`
	IsFlat               bool   `mc:"bool"`
}

func (JoinGame) PacketID() int32 { return PacketJoinGame }

// SpawnPosition names the world's compass/compass-like spawn point.
type SpawnPosition struct {
	Location int64   `mc:"position"`
	Angle    float32 `mc:"f32"`
}

func (SpawnPosition) PacketID() int32 { return PacketSpawnPosition }

// SynchronizePlayerPosition is the server's authoritative position
// correction; TeleportID round-trips through the client's
// TeleportConfirm (§3's "per-connection sequence counters for teleport
// confirmation").
type SynchronizePlayerPosition struct {
	TeleportID int32   `mc:"varint"`
	X          float64 `mc:"f64"`
	Y          float64 `mc:"f64"`
	Z          float64 `mc:"f64"`
	Yaw        float32 `mc:"f32"`
	Pitch      float32 `mc:"f32"`
	Flags      uint8   `mc:"u8"`
}

func (SynchronizePlayerPosition) PacketID() int32 { return PacketSynchronizePlayerPosition }

// UpdateViewPosition tells the client which chunk column it is centered
// on, sent by OnPositionUpdate whenever the player enters a new chunk
// column.
type UpdateViewPosition struct {
	ChunkX int32 `mc:"varint"`
	ChunkZ int32 `mc:"varint"`
}

func (UpdateViewPosition) PacketID() int32 { return PacketUpdateViewPosition }

// UnloadChunk names a chunk column the client should discard.
type UnloadChunk struct {
	ChunkX int32 `mc:"i32"`
	ChunkZ int32 `mc:"i32"`
}

func (UnloadChunk) PacketID() int32 { return PacketUnloadChunk }

// EntityEvent triggers a one-shot client-side animation/particle effect
// for an entity; the gameplay layer (out of scope) decides when to send
// one, this struct only carries the wire shape.
type EntityEvent struct {
	EntityID int32 `mc:"varint"`
	EventID  int8  `mc:"i8"`
}

func (EntityEvent) PacketID() int32 { return PacketEntityEvent }

// BlockEvent (a.k.a. Block Action) drives block-entity animations (e.g.
// a chest lid); carried through unchanged from whatever gameplay handler
// emits it.
type BlockEvent struct {
	Location    int64 `mc:"position"`
	ActionID    uint8 `mc:"u8"`
	ActionParam uint8 `mc:"u8"`
	BlockType   int32 `mc:"varint"`
}

func (BlockEvent) PacketID() int32 { return PacketBlockEvent }

// Disconnect closes the connection after delivery, carrying a
// client-visible JSON chat-component reason.
type Disconnect struct {
	Reason string `mc:"string"`
}

func (Disconnect) PacketID() int32 { return PacketPlayDisconnect }

// KeepAliveClientbound and KeepAliveServerbound echo an opaque id so the
// server can detect a dead connection (§5's idle-timeout policy).
type KeepAliveClientbound struct {
	ID int64 `mc:"i64"`
}

func (KeepAliveClientbound) PacketID() int32 { return PacketKeepAliveClientbound }

type KeepAliveServerbound struct {
	ID int64 `mc:"i64"`
}

func (KeepAliveServerbound) PacketID() int32 { return PacketKeepAliveServerbound }

// TeleportConfirm is the client's acknowledgement of a
// SynchronizePlayerPosition by TeleportID.
type TeleportConfirm struct {
	TeleportID int32 `mc:"varint"`
}

func (TeleportConfirm) PacketID() int32 { return PacketTeleportConfirm }

// SetPlayerPosition is the client's unrotated movement update — the
// trigger for §4.9's OnPositionUpdate.
type SetPlayerPosition struct {
	X        float64 `mc:"f64"`
	Y        float64 `mc:"f64"`
	Z        float64 `mc:"f64"`
	OnGround bool    `mc:"bool"`
}

func (SetPlayerPosition) PacketID() int32 { return PacketSetPlayerPosition }

// SetPlayerPositionAndRotation additionally carries yaw/pitch; gameplay
// (out of scope) would consume the rotation, the view-window manager
// only needs X/Z.
type SetPlayerPositionAndRotation struct {
	X        float64 `mc:"f64"`
	Y        float64 `mc:"f64"`
	Z        float64 `mc:"f64"`
	Yaw      float32 `mc:"f32"`
	Pitch    float32 `mc:"f32"`
	OnGround bool    `mc:"bool"`
}

func (SetPlayerPositionAndRotation) PacketID() int32 { return PacketSetPlayerPositionAndRotation }

// SetPlayerRotation never moves the view window (no XZ change) but is
// still a valid Play packet the driver must accept.
type SetPlayerRotation struct {
	Yaw      float32 `mc:"f32"`
	Pitch    float32 `mc:"f32"`
	OnGround bool    `mc:"bool"`
}

func (SetPlayerRotation) PacketID() int32 { return PacketSetPlayerRotation }

// PlayerInfoEntry is the minimal per-player identity shown to the
// gameplay layer; declared here (rather than in internal/session) since
// it travels on the wire as part of player-list packets this server
// does not yet implement, reserved for a gameplay handler to use.
type PlayerInfoEntry struct {
	UUID     uuid.UUID
	Username string
}
