package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Profile is the authenticated identity and skin data returned by a
// SessionVerifier, adapted from the teacher's mojangProfile.
type Profile struct {
	ID         uuid.UUID
	Name       string
	Properties []Property
}

// Property is a signed profile property (e.g. "textures"), carried
// through to LoginSuccess unchanged.
type Property struct {
	Name      string
	Value     string
	Signature string
}

// SessionVerifier checks a claimed username against an external
// authority using the server hash computed from the login handshake.
// §4.4 calls this "the external session-verifier"; the server itself is
// not opinionated about which backend answers it, so handler code in
// internal/login depends on this interface rather than a concrete HTTP
// client.
type SessionVerifier interface {
	Verify(ctx context.Context, username, serverHash string) (*Profile, error)
}

// MojangVerifier calls Mojang's hasJoined session endpoint, the teacher's
// verifyWithMojang adapted to the SessionVerifier interface.
type MojangVerifier struct {
	Client *http.Client
}

type mojangProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature"`
}

type mojangProfile struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Properties []mojangProperty `json:"properties"`
}

func (m *MojangVerifier) Verify(ctx context.Context, username, serverHash string) (*Profile, error) {
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("https://sessionserver.mojang.com/session/minecraft/hasJoined?username=%s&serverId=%s",
		username, serverHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("session auth failed (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session server unexpected status: %d", resp.StatusCode)
	}

	var raw mojangProfile
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return nil, fmt.Errorf("parse profile uuid: %w", err)
	}

	props := make([]Property, len(raw.Properties))
	for i, p := range raw.Properties {
		props[i] = Property{Name: p.Name, Value: p.Value, Signature: p.Signature}
	}

	return &Profile{ID: id, Name: raw.Name, Properties: props}, nil
}
