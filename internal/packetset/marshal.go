// Package packetset defines the concrete Play-state (and a few
// state-machine-critical) packet structs this server speaks, plus the
// reflection-based `mc`-tag marshal/unmarshal that encodes/decodes them,
// generalized from the teacher's pkg/protocol/marshal.go. Packets whose
// shape doesn't fit a flat list of scalar fields (ChunkData, whose
// section array is itself a sequence of paletted containers) are
// encoded by hand in chunkdata.go instead of being forced through the
// tag dispatcher, the same way the teacher hand-writes
// EncodeChunkNBT rather than routing chunk data through its own
// generic Marshal.
package packetset

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/willf/bitset"

	"github.com/ocraft/voxelserver/internal/proto"
)

const tagName = "mc"

// Packet is any struct this package knows how to marshal, keyed by its
// protocol packet id.
type Packet interface {
	PacketID() int32
}

// Marshal encodes p's tagged fields in declaration order.
func Marshal(p Packet) ([]byte, error) {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("packetset: marshal expected struct, got %s", v.Kind())
	}

	var buf bytes.Buffer
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		if err := writeField(&buf, tag, v.Field(i).Interface()); err != nil {
			return nil, fmt.Errorf("packetset: marshal field %s: %w", field.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into p's tagged fields in declaration order.
func Unmarshal(data []byte, p Packet) error {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("packetset: unmarshal expected non-nil pointer, got %T", p)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("packetset: unmarshal expected pointer to struct, got pointer to %s", v.Kind())
	}

	r := bytes.NewReader(data)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		val, err := readField(r, tag)
		if err != nil {
			return fmt.Errorf("packetset: unmarshal field %s: %w", field.Name, err)
		}
		fv := v.Field(i)
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(fv.Type()) {
			return fmt.Errorf("packetset: unmarshal field %s: cannot assign %s to %s", field.Name, rv.Type(), fv.Type())
		}
		fv.Set(rv)
	}
	return nil
}

func writeField(buf *bytes.Buffer, tag string, val any) error {
	switch tag {
	case "varint":
		_, err := proto.WriteVarInt(buf, val.(int32))
		return err
	case "varlong":
		_, err := proto.WriteVarLong(buf, val.(int64))
		return err
	case "i8":
		return proto.WriteU8(buf, uint8(val.(int8)))
	case "u8":
		return proto.WriteU8(buf, val.(uint8))
	case "i16":
		return writeI16(buf, val.(int16))
	case "u16":
		return writeU16(buf, val.(uint16))
	case "i32":
		return proto.WriteI32(buf, val.(int32))
	case "i64":
		return proto.WriteI64(buf, val.(int64))
	case "f32":
		return writeF32(buf, val.(float32))
	case "f64":
		return writeF64(buf, val.(float64))
	case "bool":
		return proto.WriteBool(buf, val.(bool))
	case "string":
		_, err := proto.WriteString(buf, val.(string))
		return err
	case "position":
		return proto.WriteI64(buf, val.(int64))
	case "uuid":
		return proto.WriteUUID(buf, val.(uuid.UUID))
	case "bytearray":
		_, err := proto.WriteByteArray(buf, val.([]byte))
		return err
	case "rest":
		_, err := buf.Write(val.([]byte))
		return err
	case "bitset":
		return proto.WriteBitSet(buf, val.(*bitset.BitSet))
	default:
		return fmt.Errorf("unknown field tag %q", tag)
	}
}

func readField(r *bytes.Reader, tag string) (any, error) {
	switch tag {
	case "varint":
		v, _, err := proto.ReadVarInt(r)
		return v, err
	case "varlong":
		v, _, err := proto.ReadVarLong(r)
		return v, err
	case "i8":
		b, err := proto.ReadU8(r)
		return int8(b), err
	case "u8":
		return proto.ReadU8(r)
	case "i16":
		return readI16(r)
	case "u16":
		return readU16(r)
	case "i32":
		return proto.ReadI32(r)
	case "i64":
		return proto.ReadI64(r)
	case "f32":
		return readF32(r)
	case "f64":
		return readF64(r)
	case "bool":
		return proto.ReadBool(r)
	case "string":
		return proto.ReadString(r, proto.MaxStringLength16)
	case "position":
		return proto.ReadI64(r)
	case "uuid":
		return proto.ReadUUID(r)
	case "bytearray":
		return proto.ReadByteArray(r)
	case "rest":
		rest := make([]byte, r.Len())
		_, err := r.Read(rest)
		return rest, err
	case "bitset":
		return proto.ReadBitSet(r)
	default:
		return nil, fmt.Errorf("unknown field tag %q", tag)
	}
}
