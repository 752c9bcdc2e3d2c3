package packetset

// StatusRequest carries no fields (Status state, serverbound 0x00).
type StatusRequest struct{}

func (StatusRequest) PacketID() int32 { return 0x00 }

// StatusResponse carries the server-list JSON document (Status state,
// clientbound 0x00).
type StatusResponse struct {
	JSONResponse string `mc:"string"`
}

func (StatusResponse) PacketID() int32 { return 0x00 }

// Ping echoes an opaque payload back to the client (Status state,
// serverbound 0x01, named "PingRequest" in the public reference).
type Ping struct {
	Payload int64 `mc:"i64"`
}

func (Ping) PacketID() int32 { return 0x01 }

// Pong answers Ping with the same payload (Status state, clientbound
// 0x01, "PongResponse" in the public reference); the connection closes
// immediately after it is written.
type Pong struct {
	Payload int64 `mc:"i64"`
}

func (Pong) PacketID() int32 { return 0x01 }
