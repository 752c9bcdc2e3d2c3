package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"

	"github.com/ocraft/voxelserver/internal/chunk"
)

const (
	slotCount   = 1024
	slotBytes   = 8 // uint32 offset + uint32 length
	headerBytes = slotCount * slotBytes
	trailerSize = 8 // xxhash64 of everything before it
)

// localSlot maps a chunk position to its slot within the region it
// belongs to. & 31 against a two's-complement int32 already implements
// Euclidean modulus for a power-of-two divisor, so this is correct for
// negative coordinates without a branch, same as the teacher's
// `(pos.X & 31) + (pos.Z&31)*32`.
func localSlot(pos chunk.Pos) int {
	return int(pos.X&31) + int(pos.Z&31)*32
}

type slot struct {
	offset uint32
	length uint32
}

// readRegionFile loads and validates a region file's full contents,
// returning its per-slot blob table. A missing file is not an error —
// it just has no slots.
func readRegionFile(path string) (slots [slotCount]slot, blobs [slotCount][]byte, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return slots, blobs, nil
	}
	if err != nil {
		return slots, blobs, err
	}

	if len(data) < headerBytes+trailerSize {
		return slots, blobs, quarantine(path, fmt.Errorf("region file %s truncated below minimum size", path))
	}

	body := data[:len(data)-trailerSize]
	wantSum := binary.BigEndian.Uint64(data[len(data)-trailerSize:])
	if gotSum := xxhash.Sum64(body); gotSum != wantSum {
		return slots, blobs, quarantine(path, fmt.Errorf("region file %s failed checksum verification", path))
	}

	header := body[:headerBytes]
	chunkData := body[headerBytes:]
	for i := 0; i < slotCount; i++ {
		off := binary.BigEndian.Uint32(header[i*slotBytes : i*slotBytes+4])
		length := binary.BigEndian.Uint32(header[i*slotBytes+4 : i*slotBytes+8])
		if length == 0 {
			continue
		}
		start := off
		end := off + length
		if int(end) > len(chunkData) {
			return slots, blobs, quarantine(path, fmt.Errorf("region file %s: slot %d points outside file", path, i))
		}
		slots[i] = slot{offset: off, length: length}
		blobs[i] = chunkData[start:end]
	}
	return slots, blobs, nil
}

// quarantine renames a corrupt region file out of the way so future
// reads treat its contents as absent, per the spec's Io error-handling
// policy for region-file corruption.
func quarantine(path string, cause error) error {
	if err := os.Rename(path, path+".bad"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w (and failed to quarantine: %v)", cause, err)
	}
	return cause
}

// writeRegionFile rewrites the whole region file from a complete slot
// table, atomically via a temp file and rename, mirroring the teacher's
// SaveRegion write discipline.
func writeRegionFile(path string, blobs [slotCount][]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("region: create dir: %w", err)
	}

	header := make([]byte, headerBytes)
	var chunkData bytes.Buffer
	offset := uint32(0)
	for i, blob := range blobs {
		if blob == nil {
			continue
		}
		binary.BigEndian.PutUint32(header[i*slotBytes:i*slotBytes+4], offset)
		binary.BigEndian.PutUint32(header[i*slotBytes+4:i*slotBytes+8], uint32(len(blob)))
		chunkData.Write(blob)
		offset += uint32(len(blob))
	}

	var body bytes.Buffer
	body.Write(header)
	body.Write(chunkData.Bytes())
	sum := xxhash.Sum64(body.Bytes())

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("region: create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if _, err := f.Write(body.Bytes()); err != nil {
		return fmt.Errorf("region: write body: %w", err)
	}
	var trailer [trailerSize]byte
	binary.BigEndian.PutUint64(trailer[:], sum)
	if _, err := f.Write(trailer[:]); err != nil {
		return fmt.Errorf("region: write trailer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("region: close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("region: rename into place: %w", err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
