package conn

import "encoding/json"

// ProtocolVersion is the wire protocol version this server advertises
// and accepts, §6: "Minecraft Java Edition 1.21.7, protocol version
// 769".
const ProtocolVersion = 769

type statusResponse struct {
	Version     statusVersion `json:"version"`
	Players     statusPlayers `json:"players"`
	Description statusDesc    `json:"description"`
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayers struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

type statusDesc struct {
	Text string `json:"text"`
}

// buildStatusJSON renders the StatusResponse body, grounded on the
// teacher's handler_status.go (same shape: version/players/description),
// adapted to this server's protocol version and online-count source.
func buildStatusJSON(motd string, maxPlayers, online int) (string, error) {
	resp := statusResponse{
		Version:     statusVersion{Name: "1.21.7", Protocol: ProtocolVersion},
		Players:     statusPlayers{Max: maxPlayers, Online: online},
		Description: statusDesc{Text: motd},
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
