// Package conn is the connection driver: it owns one accepted TCP
// connection for its entire lifetime and drives it through §4.3's state
// machine (Handshaking → Status|Login → Configuration → Play → Closed),
// delegating the login/encryption sequence to internal/login and
// per-player chunk streaming to internal/viewwindow. Grounded on the
// teacher's internal/server/conn/connection.go for the overall
// "one goroutine reads frames and dispatches by state" shape; the
// handler bodies are rewritten from scratch for the 1.21.7 state
// machine and the async chunk cache this server adds.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ocraft/voxelserver/internal/auth"
	"github.com/ocraft/voxelserver/internal/chunkcache"
	"github.com/ocraft/voxelserver/internal/dimension"
	"github.com/ocraft/voxelserver/internal/errs"
	"github.com/ocraft/voxelserver/internal/login"
	"github.com/ocraft/voxelserver/internal/metrics"
	"github.com/ocraft/voxelserver/internal/packetset"
	"github.com/ocraft/voxelserver/internal/proto"
	"github.com/ocraft/voxelserver/internal/protocolstate"
	"github.com/ocraft/voxelserver/internal/server/config"
	"github.com/ocraft/voxelserver/internal/session"
	"github.com/ocraft/voxelserver/internal/transport"
	"github.com/ocraft/voxelserver/internal/viewwindow"
)

// keepAliveInterval is comfortably under any reasonable idle timeout so
// a healthy connection's own keepalive traffic never trips it.
const keepAliveInterval = 10 * time.Second

// OnlineCounter is the server's shared connected-player count, used only
// for the Status response; a dedicated type rather than a raw *int64 so
// this package's dependency on the caller is explicit about what it's
// for.
type OnlineCounter interface {
	Add(delta int64) int64
	Load() int64
}

// Deps bundles the shared subsystems a Connection needs, all owned by
// the Server (internal/server) and handed down rather than constructed
// per-connection.
type Deps struct {
	Cfg      *config.Config
	Cache    *chunkcache.Cache
	Verifier auth.SessionVerifier
	Dim      dimension.Descriptor
	Log      *slog.Logger
	Online   OnlineCounter
}

// Connection drives one TCP connection through the full protocol
// lifecycle.
type Connection struct {
	raw  net.Conn
	tr   *transport.Transport
	deps Deps
	log  *slog.Logger

	state *protocolstate.Machine
	sess  *session.Session

	viewDistance int32
}

// New wraps an accepted net.Conn; call Handle to drive it to completion.
func New(raw net.Conn, deps Deps) *Connection {
	return &Connection{
		raw:   raw,
		tr:    transport.New(raw),
		deps:  deps,
		log:   deps.Log.With("addr", raw.RemoteAddr().String()),
		state: protocolstate.New(),
	}
}

// Handle runs the connection to completion: handshake, then Status or
// Login, then (for Login) Configuration and Play. It never returns until
// the connection is closed, either by the peer, a protocol violation, or
// ctx being cancelled.
func (c *Connection) Handle(ctx context.Context) {
	defer c.cleanup()

	c.log.Info("connection accepted")
	nextState, err := c.handshake()
	if err != nil {
		c.log.Debug("handshake failed", "err", err)
		return
	}

	switch nextState {
	case 1:
		c.runStatus()
	case 2:
		if err := c.runLoginAndBeyond(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Info("connection closed", "state", c.state.Current(), "err", err)
			c.sendDisconnectIfViolation(err)
		}
	}
}

func (c *Connection) cleanup() {
	if c.sess != nil {
		c.sess.Close()
		c.deps.Online.Add(-1)
	}
	_ = c.state.Apply(protocolstate.TriggerDisconnect)
	c.raw.Close()
	c.log.Info("connection closed")
}

// sendDisconnectIfViolation writes a best-effort Disconnect to a Play-
// state peer, per §7's "close connection with Disconnect containing a
// sanitized reason". It does nothing for login-stage failures (no
// session exists yet); internal/login itself sends a Disconnect only when
// session verification fails.
func (c *Connection) sendDisconnectIfViolation(err error) {
	if c.sess == nil || c.state.Current() == protocolstate.Closed {
		return
	}
	var violation *errs.ProtocolViolation
	if !errors.As(err, &violation) {
		return
	}
	payload, mErr := packetset.Marshal(&packetset.Disconnect{Reason: fmt.Sprintf(`{"text":%q}`, violation.Reason)})
	if mErr != nil {
		return
	}
	_ = c.tr.WriteFrame(packetset.PacketPlayDisconnect, payload)
}

// handshake reads the single Handshake packet every connection opens
// with and reports the client's requested next state (1 = Status,
// 2 = Login).
func (c *Connection) handshake() (int32, error) {
	id, payload, err := c.tr.ReadFrame()
	if err != nil {
		return 0, err
	}
	var hs packetset.Handshake
	if id != hs.PacketID() {
		return 0, &errs.ProtocolViolation{Reason: "expected handshake"}
	}
	if err := packetset.Unmarshal(payload, &hs); err != nil {
		return 0, &errs.ProtocolViolation{Reason: "malformed handshake"}
	}

	switch hs.NextState {
	case 1:
		if err := c.state.Apply(protocolstate.TriggerHandshakeToStatus); err != nil {
			return 0, err
		}
		return 1, nil
	case 2:
		if err := c.state.Apply(protocolstate.TriggerHandshakeToLogin); err != nil {
			return 0, err
		}
		return 2, nil
	default:
		return 0, &errs.ProtocolViolation{Reason: "invalid handshake next_state"}
	}
}

// runStatus answers StatusRequest/Ping and then closes, per the
// concrete scenario in §8.1: a StatusResponse followed by a Pong closes
// the connection immediately.
func (c *Connection) runStatus() {
	for {
		id, payload, err := c.tr.ReadFrame()
		if err != nil {
			return
		}
		switch id {
		case (&packetset.StatusRequest{}).PacketID():
			motd, max := c.deps.Cfg.MOTD, c.deps.Cfg.MaxPlayers
			body, err := buildStatusJSON(motd, max, int(c.deps.Online.Load()))
			if err != nil {
				return
			}
			out, err := packetset.Marshal(&packetset.StatusResponse{JSONResponse: body})
			if err != nil {
				return
			}
			if err := c.tr.WriteFrame((&packetset.StatusResponse{}).PacketID(), out); err != nil {
				return
			}
		case (&packetset.Ping{}).PacketID():
			var ping packetset.Ping
			if err := packetset.Unmarshal(payload, &ping); err != nil {
				return
			}
			if err := c.state.Apply(protocolstate.TriggerStatusPing); err != nil {
				return
			}
			out, err := packetset.Marshal(&packetset.Pong{Payload: ping.Payload})
			if err == nil {
				_ = c.tr.WriteFrame((&packetset.Pong{}).PacketID(), out)
			}
			return
		default:
			return
		}
	}
}

// runLoginAndBeyond drives Login, Configuration, and Play in sequence;
// each stage's own error already carries enough context for the caller
// to log and (for Play) disconnect.
func (c *Connection) runLoginAndBeyond(ctx context.Context) error {
	cfg := c.deps.Cfg
	loginCfg := login.Config{
		OnlineMode:           cfg.OnlineMode,
		PrivateKey:           cfg.PrivateKey,
		PublicKeyDER:         cfg.PublicKeyDER,
		CompressionThreshold: cfg.CompressionThreshold,
		ServerID:             "",
		Verifier:             c.deps.Verifier,
	}
	id, err := login.Run(ctx, c.tr, loginCfg)
	if err != nil {
		return err
	}
	if err := c.state.Apply(protocolstate.TriggerLoginAcknowledged); err != nil {
		return err
	}
	c.log = c.log.With("player", id.Username)
	c.deps.Online.Add(1)
	metrics.Global.ConnectionsTotal.Add(1)

	c.sess = session.New(c.tr, c.state, id)

	if err := c.runConfiguration(); err != nil {
		return err
	}
	return c.runPlay(ctx)
}

// runConfiguration sends FinishConfiguration immediately (this
// implementation has no registry/feature-flag data to stream, per §1's
// "concrete gameplay... out of scope") and then waits for the client's
// ack, picking up ClientInformation's view distance along the way, per
// §4.9's "the client's negotiated view distance".
func (c *Connection) runConfiguration() error {
	c.viewDistance = c.deps.Cfg.ViewDistance

	out, err := packetset.Marshal(&packetset.FinishConfiguration{})
	if err != nil {
		return err
	}
	if err := c.tr.WriteFrame(packetset.PacketFinishConfiguration, out); err != nil {
		return err
	}

	for {
		id, payload, err := c.tr.ReadFrame()
		if err != nil {
			return err
		}
		switch id {
		case packetset.PacketClientInformation:
			var ci packetset.ClientInformation
			if err := packetset.Unmarshal(payload, &ci); err != nil {
				return &errs.ProtocolViolation{Reason: "malformed ClientInformation"}
			}
			if ci.ViewDistance > 0 {
				c.viewDistance = int32(ci.ViewDistance)
			}
		case packetset.PacketConfigPluginMessage:
			// Plugin channels are a gameplay concern, out of scope.
		case packetset.PacketFinishConfigurationAck:
			return c.state.Apply(protocolstate.TriggerFinishConfigurationAck)
		default:
			return &errs.ProtocolViolation{Reason: "unexpected configuration packet"}
		}
	}
}

// runPlay sends the three packets §8's scenario 2 requires in order
// (JoinGame, SpawnPosition, SynchronizePlayerPosition), installs the
// view window, and then reads packets until the connection closes or
// idles out.
func (c *Connection) runPlay(ctx context.Context) error {
	spawnY := c.deps.Dim.MinY + c.deps.Dim.Height/2

	if err := c.writePlay(&packetset.JoinGame{
		EntityID:            1,
		GameMode:            1, // creative: gameplay mode selection is out of scope
		DimensionName:       c.deps.Dim.Name,
		HashedSeed:          c.deps.Cfg.Seed,
		ViewDistance:        c.viewDistance,
		SimulationDistance:  c.viewDistance,
		ReducedDebugInfo:    false,
		EnableRespawnScreen: true,
		IsFlat:              false,
	}); err != nil {
		return err
	}
	if err := c.writePlay(&packetset.SpawnPosition{
		Location: proto.EncodePosition(0, spawnY, 0),
	}); err != nil {
		return err
	}
	teleportID := c.sess.NextTeleportID()
	if err := c.writePlay(&packetset.SynchronizePlayerPosition{
		TeleportID: teleportID,
		X:          0.5,
		Y:          float64(spawnY),
		Z:          0.5,
	}); err != nil {
		return err
	}

	c.sess.Window = viewwindow.New(c.deps.Cache, c.sess, c.viewDistance, c.log)
	if err := c.sess.Window.OnPositionUpdate(ctx, mgl64.Vec3{0.5, float64(spawnY), 0.5}); err != nil {
		c.log.Warn("initial view window load failed", "err", err)
	}

	keepAliveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.keepAliveLoop(keepAliveCtx)

	for {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.deps.Cfg.IdleTimeout))
		id, payload, err := c.tr.ReadFrame()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return &errs.Io{Scope: "play idle timeout", Err: err}
			}
			return err
		}
		if err := c.dispatchPlay(ctx, id, payload); err != nil {
			return err
		}
	}
}

func (c *Connection) dispatchPlay(ctx context.Context, id int32, payload []byte) error {
	switch id {
	case packetset.PacketTeleportConfirm:
		var p packetset.TeleportConfirm
		if err := packetset.Unmarshal(payload, &p); err != nil {
			return &errs.ProtocolViolation{Reason: "malformed TeleportConfirm"}
		}
		c.sess.ConfirmTeleport(p.TeleportID)
		return nil

	case packetset.PacketSetPlayerPosition:
		var p packetset.SetPlayerPosition
		if err := packetset.Unmarshal(payload, &p); err != nil {
			return &errs.ProtocolViolation{Reason: "malformed SetPlayerPosition"}
		}
		return c.sess.Window.OnPositionUpdate(ctx, mgl64.Vec3{p.X, p.Y, p.Z})

	case packetset.PacketSetPlayerPositionAndRotation:
		var p packetset.SetPlayerPositionAndRotation
		if err := packetset.Unmarshal(payload, &p); err != nil {
			return &errs.ProtocolViolation{Reason: "malformed SetPlayerPositionAndRotation"}
		}
		return c.sess.Window.OnPositionUpdate(ctx, mgl64.Vec3{p.X, p.Y, p.Z})

	case packetset.PacketSetPlayerRotation:
		// No XZ change possible from rotation alone; §4.9 step 1 is a
		// no-op here by construction.
		var p packetset.SetPlayerRotation
		return packetset.Unmarshal(payload, &p)

	case packetset.PacketKeepAliveServerbound:
		// Liveness is tracked by the read deadline in runPlay's loop;
		// any packet, not just KeepAlive, resets it.
		var p packetset.KeepAliveServerbound
		return packetset.Unmarshal(payload, &p)

	case packetset.PacketPlayPluginMessage:
		// Gameplay plugin channels are out of scope.
		return nil

	default:
		return &errs.ProtocolViolation{Reason: fmt.Sprintf("unexpected play packet 0x%02x", id)}
	}
}

func (c *Connection) keepAliveLoop(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			payload, err := packetset.Marshal(&packetset.KeepAliveClientbound{ID: now.UnixNano()})
			if err != nil {
				return
			}
			if err := c.tr.WriteFrame(packetset.PacketKeepAliveClientbound, payload); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writePlay(p packetset.Packet) error {
	payload, err := packetset.Marshal(p)
	if err != nil {
		return err
	}
	return c.tr.WriteFrame(p.PacketID(), payload)
}
