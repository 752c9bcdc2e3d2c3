package transport

import "crypto/cipher"

// cfb8Stream implements AES/CFB8 (8-bit feedback), the stream mode the
// Java Edition protocol uses once encryption is enabled. Both directions
// use the block cipher's Encrypt method; only which byte feeds back into
// the shift register differs between encrypting and decrypting.
type cfb8Stream struct {
	block   cipher.Block
	iv      [16]byte
	encrypt bool
}

func newCFB8(block cipher.Block, iv []byte, encrypt bool) *cfb8Stream {
	s := &cfb8Stream{block: block, encrypt: encrypt}
	copy(s.iv[:], iv)
	return s
}

func (s *cfb8Stream) XORKeyStream(dst, src []byte) {
	var tmp [16]byte
	for i, b := range src {
		s.block.Encrypt(tmp[:], s.iv[:])
		out := b ^ tmp[0]

		if s.encrypt {
			dst[i] = out
			s.shiftIn(out)
		} else {
			s.shiftIn(b)
			dst[i] = out
		}
	}
}

func (s *cfb8Stream) shiftIn(b byte) {
	copy(s.iv[:], s.iv[1:])
	s.iv[15] = b
}
