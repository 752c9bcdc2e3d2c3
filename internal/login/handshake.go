// Package login drives the login & encryption handshake (C4): the
// sequence of LoginStart / EncryptionRequest / EncryptionResponse /
// SetCompression / LoginSuccess / LoginAcknowledged frames described in
// §4.4, adapted from the teacher's conn/handler_login.go to the 1.21.7
// sequence (SetCompression before LoginSuccess, LoginAcknowledged
// advancing to Configuration rather than straight to Play).
package login

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/google/uuid"

	"github.com/ocraft/voxelserver/internal/auth"
	"github.com/ocraft/voxelserver/internal/errs"
	"github.com/ocraft/voxelserver/internal/proto"
	"github.com/ocraft/voxelserver/internal/transport"
)

// Config carries the pieces of server configuration the handshake needs,
// trimmed to what this package touches rather than depending on the
// whole server config type.
type Config struct {
	OnlineMode           bool
	PrivateKey           *rsa.PrivateKey
	PublicKeyDER         []byte
	CompressionThreshold int // < 0 disables SetCompression
	ServerID             string
	Verifier             auth.SessionVerifier
}

// Identity is the resolved player identity once login succeeds, handed
// off to the configuration/play stages.
type Identity struct {
	UUID       uuid.UUID
	Username   string
	Properties []auth.Property
}

// Run drives one connection's login sequence to completion, leaving tr
// with encryption and compression installed as negotiated. The caller is
// responsible for advancing the protocol state machine's transitions
// (TriggerHandshakeToLogin already applied, TriggerLoginAcknowledged
// applied once Run returns successfully); Run itself performs no state
// bookkeeping beyond the wire exchange.
func Run(ctx context.Context, tr *transport.Transport, cfg Config) (*Identity, error) {
	packetID, payload, err := tr.ReadFrame()
	if err != nil {
		return nil, err
	}
	if packetID != PacketLoginStart {
		return nil, &errs.ProtocolViolation{Reason: "expected LoginStart"}
	}
	username, loginUUID, err := decodeLoginStart(payload)
	if err != nil {
		return nil, err
	}

	var id *Identity
	if cfg.OnlineMode {
		id, err = runOnline(ctx, tr, cfg, username)
	} else {
		id, err = runOffline(username, loginUUID)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CompressionThreshold >= 0 {
		if err := writeSetCompression(tr, cfg.CompressionThreshold); err != nil {
			return nil, err
		}
		tr.EnableCompression(cfg.CompressionThreshold)
	}

	if err := writeLoginSuccess(tr, id); err != nil {
		return nil, err
	}

	ackID, _, err := tr.ReadFrame()
	if err != nil {
		return nil, err
	}
	if ackID != PacketLoginAcknowledged {
		return nil, &errs.ProtocolViolation{Reason: "expected LoginAcknowledged"}
	}

	return id, nil
}

func runOffline(username string, clientUUID uuid.UUID) (*Identity, error) {
	id := clientUUID
	if id == uuid.Nil {
		id = auth.OfflineUUID(username)
	}
	return &Identity{UUID: id, Username: username}, nil
}

func runOnline(ctx context.Context, tr *transport.Transport, cfg Config, username string) (*Identity, error) {
	verifyToken := make([]byte, 4)
	if _, err := rand.Read(verifyToken); err != nil {
		return nil, fmt.Errorf("generate verify token: %w", err)
	}

	if err := writeEncryptionRequest(tr, cfg, verifyToken); err != nil {
		return nil, err
	}

	respID, payload, err := tr.ReadFrame()
	if err != nil {
		return nil, err
	}
	if respID != PacketEncryptionResponse {
		return nil, &errs.ProtocolViolation{Reason: "expected EncryptionResponse"}
	}
	encSecret, encToken, err := decodeEncryptionResponse(payload)
	if err != nil {
		return nil, err
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, cfg.PrivateKey, encSecret)
	if err != nil {
		return nil, &errs.Authentication{Reason: "decrypt shared secret failed"}
	}
	gotToken, err := rsa.DecryptPKCS1v15(rand.Reader, cfg.PrivateKey, encToken)
	if err != nil {
		return nil, &errs.Authentication{Reason: "decrypt verify token failed"}
	}
	if !bytes.Equal(gotToken, verifyToken) {
		return nil, &errs.Authentication{Reason: "verify token mismatch"}
	}

	if err := tr.EnableEncryption(sharedSecret); err != nil {
		return nil, err
	}

	serverHash := auth.ServerHash(cfg.ServerID, sharedSecret, cfg.PublicKeyDER)
	profile, err := cfg.Verifier.Verify(ctx, username, serverHash)
	if err != nil {
		_ = writeDisconnect(tr, "Failed to verify session.")
		return nil, &errs.Authentication{Reason: "session verification failed: " + err.Error()}
	}

	return &Identity{UUID: profile.ID, Username: profile.Name, Properties: profile.Properties}, nil
}

// decodeLoginStart reads {username, uuid}; uuid may be the zero UUID if
// the client omitted it (only meaningful offline, per §4.4).
func decodeLoginStart(payload []byte) (username string, id uuid.UUID, err error) {
	r := bytes.NewReader(payload)
	username, err = proto.ReadString(r, 16)
	if err != nil {
		return "", uuid.Nil, &errs.ProtocolViolation{Reason: "malformed LoginStart username"}
	}
	id, err = proto.ReadUUID(r)
	if err != nil {
		return "", uuid.Nil, &errs.ProtocolViolation{Reason: "malformed LoginStart uuid"}
	}
	return username, id, nil
}

func decodeEncryptionResponse(payload []byte) (sharedSecret, verifyToken []byte, err error) {
	r := bytes.NewReader(payload)
	sharedSecret, err = proto.ReadByteArray(r)
	if err != nil {
		return nil, nil, &errs.ProtocolViolation{Reason: "malformed EncryptionResponse secret"}
	}
	verifyToken, err = proto.ReadByteArray(r)
	if err != nil {
		return nil, nil, &errs.ProtocolViolation{Reason: "malformed EncryptionResponse token"}
	}
	return sharedSecret, verifyToken, nil
}

func writeEncryptionRequest(tr *transport.Transport, cfg Config, verifyToken []byte) error {
	var buf bytes.Buffer
	if _, err := proto.WriteString(&buf, cfg.ServerID); err != nil {
		return err
	}
	if _, err := proto.WriteByteArray(&buf, cfg.PublicKeyDER); err != nil {
		return err
	}
	if _, err := proto.WriteByteArray(&buf, verifyToken); err != nil {
		return err
	}
	if err := proto.WriteBool(&buf, true); err != nil { // should_authenticate
		return err
	}
	return tr.WriteFrame(PacketEncryptionRequest, buf.Bytes())
}

func writeSetCompression(tr *transport.Transport, threshold int) error {
	var buf bytes.Buffer
	if _, err := proto.WriteVarInt(&buf, int32(threshold)); err != nil {
		return err
	}
	return tr.WriteFrame(PacketSetCompression, buf.Bytes())
}

func writeLoginSuccess(tr *transport.Transport, id *Identity) error {
	var buf bytes.Buffer
	if err := proto.WriteUUID(&buf, id.UUID); err != nil {
		return err
	}
	if _, err := proto.WriteString(&buf, id.Username); err != nil {
		return err
	}
	if _, err := proto.WriteVarInt(&buf, int32(len(id.Properties))); err != nil {
		return err
	}
	for _, p := range id.Properties {
		if _, err := proto.WriteString(&buf, p.Name); err != nil {
			return err
		}
		if _, err := proto.WriteString(&buf, p.Value); err != nil {
			return err
		}
		hasSig := p.Signature != ""
		if err := proto.WriteBool(&buf, hasSig); err != nil {
			return err
		}
		if hasSig {
			if _, err := proto.WriteString(&buf, p.Signature); err != nil {
				return err
			}
		}
	}
	return tr.WriteFrame(PacketLoginSuccess, buf.Bytes())
}

func writeDisconnect(tr *transport.Transport, reason string) error {
	var buf bytes.Buffer
	jsonReason := fmt.Sprintf(`{"text":%q}`, reason)
	if _, err := proto.WriteString(&buf, jsonReason); err != nil {
		return err
	}
	return tr.WriteFrame(PacketLoginDisconnect, buf.Bytes())
}
