// Package transport implements the frame transport (C2): length-prefixed
// packet framing with an optional compression filter and an optional
// AES/CFB8 encryption filter, composed cipher-innermost / length-framing
// outermost, each a one-way transition per direction once enabled.
package transport

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/ocraft/voxelserver/internal/errs"
	"github.com/ocraft/voxelserver/internal/proto"
)

// MaxFrameLength bounds a single frame so a corrupt or hostile peer can't
// make the server allocate unbounded memory for one packet_length.
const MaxFrameLength = 1 << 21 // 2 MiB, matching the teacher's cap.

// Transport is a duplex byte pipe over a net.Conn (or any io.ReadWriter,
// for tests) implementing the frame layout of §4.2. Reads and writes
// block the calling goroutine exactly as Go's net.Conn already does —
// that blocking call IS this system's "suspension point" for frame I/O.
type Transport struct {
	reader *bufio.Reader
	raw    io.ReadWriter // the innermost stream writes go to directly

	writeMu sync.Mutex

	compressionThreshold int // -1 == disabled
	encryptionEnabled    bool
}

// New wraps rw (typically a net.Conn) with no filters enabled.
func New(rw io.ReadWriter) *Transport {
	return &Transport{
		reader:               bufio.NewReaderSize(rw, 8192),
		raw:                  rw,
		compressionThreshold: -1,
	}
}

// EnableEncryption installs an AES/CFB8 filter innermost of any framing,
// keyed and IV-seeded by sharedSecret. It is a one-way transition: every
// byte read or written after this call (on both directions) is
// transformed. The real client starts its own cipher immediately after
// sending EncryptionResponse, before any server acknowledgement, so any
// bytes the old bufio.Reader already pulled off the socket but hasn't
// handed to a caller yet are ciphertext the new decrypt stream must still
// see, in order — they are replayed through the new cipher rather than
// dropped, per §4.2's "cancellation of a suspended read must not lose
// bytes already read into the transport's internal buffer."
func (t *Transport) EnableEncryption(sharedSecret []byte) error {
	if t.encryptionEnabled {
		return &errs.ProtocolViolation{Reason: "encryption already enabled"}
	}
	pending := make([]byte, t.reader.Buffered())
	if _, err := io.ReadFull(t.reader, pending); err != nil {
		return err
	}
	cc, err := newCipherConn(&pendingPrefixReader{pending: pending, rw: t.raw}, sharedSecret)
	if err != nil {
		return err
	}
	t.raw = cc
	t.reader = bufio.NewReaderSize(cc, 8192)
	t.encryptionEnabled = true
	return nil
}

// pendingPrefixReader replays bytes already pulled off the raw socket by
// a now-discarded bufio.Reader before falling through to the socket
// itself, so swapping in a new reader mid-stream never loses bytes that
// were already read but not yet delivered to a caller.
type pendingPrefixReader struct {
	pending []byte
	rw      io.ReadWriter
}

func (p *pendingPrefixReader) Read(b []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	return p.rw.Read(b)
}

func (p *pendingPrefixReader) Write(b []byte) (int, error) {
	return p.rw.Write(b)
}

// EnableCompression turns on length-threshold compression for frames
// written and expected on reads from this point on. It is a one-way
// transition; threshold < 0 means "leave disabled" and is a no-op so
// config.CompressionThreshold == -1 can flow straight through.
func (t *Transport) EnableCompression(threshold int) {
	if threshold < 0 {
		return
	}
	t.compressionThreshold = threshold
}

// ReadFrame blocks until one complete frame has arrived, returning its
// packet id and payload as a contiguous slice. Readers only consume bytes
// on success: a malformed frame's ProtocolViolation is returned without
// having advanced past bytes the caller hasn't logically accepted yet —
// in practice that means failure happens only after the full frame has
// already been read off the wire into an owned buffer, never mid-field.
func (t *Transport) ReadFrame() (packetID int32, payload []byte, err error) {
	frameLen, _, err := proto.ReadVarInt(t.reader)
	if err != nil {
		return 0, nil, err
	}
	if frameLen < 1 {
		return 0, nil, &errs.ProtocolViolation{Reason: "zero-length frame"}
	}
	if frameLen > MaxFrameLength {
		return 0, nil, &errs.ProtocolViolation{Reason: "frame exceeds maximum length"}
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(t.reader, frame); err != nil {
		return 0, nil, err
	}

	body, err := t.unwrapCompression(frame)
	if err != nil {
		return 0, nil, err
	}

	r := bytes.NewReader(body)
	id, _, err := proto.ReadVarInt(r)
	if err != nil {
		return 0, nil, &errs.ProtocolViolation{Reason: "truncated packet id"}
	}
	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, nil, err
	}
	return id, rest, nil
}

// unwrapCompression interprets frame per §4.2's compressed/uncompressed
// layout, returning the decoded (packet_id + payload) bytes.
func (t *Transport) unwrapCompression(frame []byte) ([]byte, error) {
	if t.compressionThreshold < 0 {
		return frame, nil
	}
	r := bytes.NewReader(frame)
	dataLen, _, err := proto.ReadVarInt(r)
	if err != nil {
		return nil, &errs.ProtocolViolation{Reason: "truncated data length"}
	}
	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	if dataLen == 0 {
		return rest, nil
	}
	return inflate(rest, int(dataLen))
}

// WriteFrame builds and writes a packet id plus payload, applying
// compression per §4.2's threshold rule, under a write lock so a
// connection's responses stay ordered even if multiple goroutines (e.g.
// the keep-alive ticker and the main driver loop) call WriteFrame
// concurrently on the same connection.
func (t *Transport) WriteFrame(packetID int32, payload []byte) error {
	var body bytes.Buffer
	if _, err := proto.WriteVarInt(&body, packetID); err != nil {
		return err
	}
	body.Write(payload)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.compressionThreshold < 0 {
		return t.writeRawFrame(body.Bytes())
	}
	return t.writeCompressedFrame(body.Bytes())
}

func (t *Transport) writeRawFrame(body []byte) error {
	var frame bytes.Buffer
	if _, err := proto.WriteVarInt(&frame, int32(len(body))); err != nil {
		return err
	}
	frame.Write(body)
	_, err := t.raw.Write(frame.Bytes())
	return err
}

func (t *Transport) writeCompressedFrame(body []byte) error {
	var inner bytes.Buffer
	if len(body) < t.compressionThreshold {
		if _, err := proto.WriteVarInt(&inner, 0); err != nil {
			return err
		}
		inner.Write(body)
	} else {
		compressed, err := deflate(body)
		if err != nil {
			return err
		}
		if _, err := proto.WriteVarInt(&inner, int32(len(body))); err != nil {
			return err
		}
		inner.Write(compressed)
	}

	var frame bytes.Buffer
	if _, err := proto.WriteVarInt(&frame, int32(inner.Len())); err != nil {
		return err
	}
	frame.Write(inner.Bytes())
	_, err := t.raw.Write(frame.Bytes())
	return err
}
