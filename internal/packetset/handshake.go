package packetset

// Handshake is the first packet on any connection; NextState selects
// Status (1) or Login (2) (clientbound-free, Handshaking state 0x00).
type Handshake struct {
	ProtocolVersion int32  `mc:"varint"`
	ServerAddress   string `mc:"string"`
	ServerPort      uint16 `mc:"u16"`
	NextState       int32  `mc:"varint"`
}

func (Handshake) PacketID() int32 { return 0x00 }
