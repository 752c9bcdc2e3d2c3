package proto

import (
	"encoding/binary"
	"io"

	"github.com/ocraft/voxelserver/internal/errs"
)

// MaxStringLength16 is the default cap (in UTF-16 code units) most
// protocol strings are bounded to.
const MaxStringLength16 = 32767

// ReadString reads a VarInt-length-prefixed UTF-8 string and fails with
// ProtocolViolation if its UTF-16 length would exceed maxLen16.
func ReadString(r io.Reader, maxLen16 int) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	// Worst case 3 bytes of UTF-8 per UTF-16 code unit, 4 for surrogate pairs.
	if length < 0 || length > int32(maxLen16)*4 {
		return "", &errs.ProtocolViolation{Reason: "string byte length out of range"}
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	s := string(buf)
	if utf16Len(s) > maxLen16 {
		return "", &errs.ProtocolViolation{Reason: "string exceeds max UTF-16 length"}
	}
	return s, nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// WriteString writes a VarInt-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) (int, error) {
	n1, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write([]byte(s))
	return n1 + n2, err
}

// EncodePosition packs (x, z: 26 bits signed; y: 12 bits signed) into the
// big-endian 64-bit word the protocol uses for block positions.
func EncodePosition(x, y, z int32) int64 {
	return (int64(x)&0x3FFFFFF)<<38 | (int64(y)&0xFFF)<<26 | (int64(z) & 0x3FFFFFF)
}

// DecodePosition reverses EncodePosition, sign-extending each field.
func DecodePosition(val int64) (x, y, z int32) {
	x = int32(val >> 38)
	y = int32((val >> 26) & 0xFFF)
	z = int32(val & 0x3FFFFFF)

	if x >= 1<<25 {
		x -= 1 << 26
	}
	if y >= 1<<11 {
		y -= 1 << 12
	}
	if z >= 1<<25 {
		z -= 1 << 26
	}
	return
}

func ReadI64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteI64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteI32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadU8(r)
	return b != 0, err
}

func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteU8(w, 1)
	}
	return WriteU8(w, 0)
}

// ReadByteArray reads a VarInt-count-prefixed raw byte array.
func ReadByteArray(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, &errs.ProtocolViolation{Reason: "negative byte array length"}
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteByteArray writes a VarInt-count-prefixed raw byte array.
func WriteByteArray(w io.Writer, data []byte) (int, error) {
	n1, err := WriteVarInt(w, int32(len(data)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write(data)
	return n1 + n2, err
}

// ReadPrefixedArray reads a VarInt count followed by that many elements,
// using decode for each. It is generic over the element type so callers
// don't re-implement the count-then-loop pattern per packet field.
func ReadPrefixedArray[T any](r io.Reader, decode func(io.Reader) (T, error)) ([]T, error) {
	count, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, &errs.ProtocolViolation{Reason: "negative prefixed array count"}
	}
	out := make([]T, 0, count)
	for i := int32(0); i < count; i++ {
		v, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WritePrefixedArray writes a VarInt count followed by each element via
// encode.
func WritePrefixedArray[T any](w io.Writer, items []T, encode func(io.Writer, T) error) error {
	if _, err := WriteVarInt(w, int32(len(items))); err != nil {
		return err
	}
	for _, v := range items {
		if err := encode(w, v); err != nil {
			return err
		}
	}
	return nil
}

// IDOrX reads the "registry id or inline value" encoding: a VarInt tag of
// 0 means an inline value follows (decoded via decodeInline); a non-zero
// tag n means registry id n-1.
func ReadIDOrX[T any](r io.Reader, decodeInline func(io.Reader) (T, error)) (registryID int32, inline T, isInline bool, err error) {
	tag, _, err := ReadVarInt(r)
	if err != nil {
		return 0, inline, false, err
	}
	if tag == 0 {
		inline, err = decodeInline(r)
		return 0, inline, true, err
	}
	return tag - 1, inline, false, nil
}

// WriteIDOrX writes the same encoding ReadIDOrX reads: registryID >= 0
// writes it as a non-zero tag (n+1), inline=true writes tag 0 followed
// by encodeInline(inline).
func WriteIDOrX[T any](w io.Writer, registryID int32, inline T, isInline bool, encodeInline func(io.Writer, T) error) error {
	if isInline {
		if _, err := WriteVarInt(w, 0); err != nil {
			return err
		}
		return encodeInline(w, inline)
	}
	_, err := WriteVarInt(w, registryID+1)
	return err
}
