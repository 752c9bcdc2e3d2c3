package proto

import (
	"io"

	"github.com/willf/bitset"

	"github.com/ocraft/voxelserver/internal/errs"
)

// ReadBitSet reads the protocol's BitSet encoding: a VarInt word count
// followed by that many 64-bit words, each word's bits addressed
// little-endian (bit 0 = least significant). willf/bitset's own word
// layout is exactly this, so the words read off the wire can be handed to
// bitset.From directly.
func ReadBitSet(r io.Reader) (*bitset.BitSet, error) {
	count, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, &errs.ProtocolViolation{Reason: "negative bitset word count"}
	}
	words := make([]uint64, count)
	for i := range words {
		v, err := ReadI64(r)
		if err != nil {
			return nil, err
		}
		words[i] = uint64(v)
	}
	return bitset.From(words), nil
}

// WriteBitSet writes bs as a VarInt word count followed by its words.
func WriteBitSet(w io.Writer, bs *bitset.BitSet) error {
	words := bs.Bytes()
	if _, err := WriteVarInt(w, int32(len(words))); err != nil {
		return err
	}
	for _, word := range words {
		if err := WriteI64(w, int64(word)); err != nil {
			return err
		}
	}
	return nil
}
