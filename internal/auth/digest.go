// Package auth implements the session-authentication half of the login
// handshake (C4): the Minecraft signed-hex server hash, offline-mode
// deterministic UUIDs, and the external session-verifier call, adapted
// from the teacher's conn/crypto.go.
package auth

import (
	"crypto/md5"
	"crypto/sha1"
	"math/big"

	"github.com/google/uuid"
)

// ServerHash computes the Minecraft-style SHA1 hex digest used as the
// serverId query parameter against the session verifier: a signed
// two's-complement big integer rendered lowercase, no leading zeros, a
// minus sign if negative.
func ServerHash(serverID string, sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	sum := h.Sum(nil)

	n := new(big.Int).SetBytes(sum)
	if sum[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 160))
	}
	return n.Text(16)
}

// OfflineUUID derives the deterministic offline-mode UUID for username,
// matching Java's UUID.nameUUIDFromBytes over "OfflinePlayer:<username>":
// a raw MD5 of the name bytes with the version nibble forced to 3 and the
// variant bits forced to RFC 4122, per the standard convention referenced
// in §4.4. This is NOT the namespace-qualified UUIDv3 construction
// (hashing namespace||name) that uuid.NewMD5 implements.
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	var id uuid.UUID
	copy(id[:], sum[:])
	return id
}
