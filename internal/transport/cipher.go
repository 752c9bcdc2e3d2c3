package transport

import (
	"crypto/aes"
	"fmt"
	"io"
)

// cipherConn wraps an io.ReadWriter with AES/CFB8 encrypt/decrypt. The
// shared secret serves as both key and IV in both directions, per the
// Java Edition login handshake (§4.4): once installed it applies to every
// subsequent byte, including the length prefix of later frames.
type cipherConn struct {
	rw      io.ReadWriter
	encrypt *cfb8Stream
	decrypt *cfb8Stream
}

func newCipherConn(rw io.ReadWriter, sharedSecret []byte) (*cipherConn, error) {
	encBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	decBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	return &cipherConn{
		rw:      rw,
		encrypt: newCFB8(encBlock, sharedSecret, true),
		decrypt: newCFB8(decBlock, sharedSecret, false),
	}, nil
}

func (c *cipherConn) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)
	if n > 0 {
		c.decrypt.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

func (c *cipherConn) Write(p []byte) (int, error) {
	out := make([]byte, len(p))
	c.encrypt.XORKeyStream(out, p)
	return c.rw.Write(out)
}
