// Package proto implements the primitive wire types of the Java Edition
// protocol: VarInt/VarLong, big-endian fixed-width integers, length-prefixed
// UTF-8 strings, block position packing, UUIDs, BitSets, and prefixed
// arrays. Every decode operation is total on well-formed input and returns
// a *errs.ProtocolViolation on malformed input without having consumed
// bytes the caller didn't ask for — readers only commit on success.
package proto

import (
	"io"

	"github.com/ocraft/voxelserver/internal/errs"
)

// ReadVarInt decodes a VarInt, returning the value and the number of bytes
// consumed (1..5).
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	var b [1]byte

	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, numRead, err
		}
		numRead++

		result |= uint32(b[0]&0x7F) << (7 * (numRead - 1))

		if b[0]&0x80 == 0 {
			break
		}
		if numRead >= 5 {
			return 0, numRead, &errs.ProtocolViolation{Reason: "VarInt longer than 5 bytes"}
		}
	}
	return int32(result), numRead, nil
}

// WriteVarInt encodes value and writes it to w, returning the byte count.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf (which must have room for 5 bytes) and
// returns the number of bytes written.
func PutVarInt(buf []byte, value int32) int {
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			return n
		}
	}
}

// VarIntSize returns the number of bytes value encodes to (1..5).
func VarIntSize(value int32) int {
	val := uint32(value)
	size := 1
	for val >>= 7; val != 0; val >>= 7 {
		size++
	}
	return size
}

// ReadVarLong decodes a VarLong (up to 10 bytes).
func ReadVarLong(r io.Reader) (int64, int, error) {
	var result uint64
	var numRead int
	var b [1]byte

	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, numRead, err
		}
		numRead++

		result |= uint64(b[0]&0x7F) << (7 * (numRead - 1))

		if b[0]&0x80 == 0 {
			break
		}
		if numRead >= 10 {
			return 0, numRead, &errs.ProtocolViolation{Reason: "VarLong longer than 10 bytes"}
		}
	}
	return int64(result), numRead, nil
}

// WriteVarLong encodes value as a VarLong.
func WriteVarLong(w io.Writer, value int64) (int, error) {
	var buf [10]byte
	val := uint64(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			break
		}
	}
	return w.Write(buf[:n])
}

