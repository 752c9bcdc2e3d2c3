package packetset

// Configuration-state packet ids: the exchange is open-ended in the
// public reference (plugin channels, feature flags, registry data) but
// §4.3 only pins its entry and exit, so this implementation keeps the
// middle of the exchange to the one packet that actually carries
// information this server acts on (the client's view distance) and the
// finish handshake itself.
const (
	PacketClientInformation      = 0x00 // serverbound
	PacketConfigPluginMessage    = 0x01 // both directions, distinct channel string per use
	PacketFinishConfiguration    = 0x02 // clientbound
	PacketFinishConfigurationAck = 0x03 // serverbound, §4.3's FinishConfigurationAck trigger
)

// ClientInformation carries the client's negotiated view distance, the
// value §4.9's view-window manager needs; the remaining fields are
// stored nowhere further than this struct since locale/chat-mode/skin
// parts are concrete gameplay presentation, out of scope per §1.
type ClientInformation struct {
	Locale              string `mc:"string"`
	ViewDistance        int8   `mc:"i8"`
	ChatMode            int32  `mc:"varint"`
	ChatColors          bool   `mc:"bool"`
	DisplayedSkinParts  uint8  `mc:"u8"`
	MainHand            int32  `mc:"varint"`
	TextFiltering       bool   `mc:"bool"`
	AllowServerListings bool   `mc:"bool"`
}

func (ClientInformation) PacketID() int32 { return PacketClientInformation }

// PluginMessage carries an opaque payload on a named channel, in either
// direction; the gameplay layer (out of scope here) is the only intended
// consumer of its Data.
type PluginMessage struct {
	Channel string `mc:"string"`
	Data    []byte `mc:"rest"`
}

func (PluginMessage) PacketID() int32 { return PacketConfigPluginMessage }

// FinishConfiguration carries no fields; the client answers with
// FinishConfigurationAck, advancing the state machine to Play (§4.3).
type FinishConfiguration struct{}

func (FinishConfiguration) PacketID() int32 { return PacketFinishConfiguration }

// FinishConfigurationAck likewise carries no fields.
type FinishConfigurationAck struct{}

func (FinishConfigurationAck) PacketID() int32 { return PacketFinishConfigurationAck }
