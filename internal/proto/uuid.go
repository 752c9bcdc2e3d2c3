package proto

import (
	"io"

	"github.com/google/uuid"
)

// ReadUUID reads the protocol's two-big-endian-longs UUID encoding into a
// google/uuid.UUID, so session and packet code carries a real UUID type
// instead of a bare [16]byte.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.UUID{}, err
	}
	return uuid.UUID(buf), nil
}

// WriteUUID writes id as two big-endian 64-bit halves.
func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}
