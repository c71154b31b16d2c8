package refresh

import (
	"crypto/sha256"
	"crypto/subtle"
)

// HashSize is the digest length stored per record.
const HashSize = sha256.Size

// HashToken returns the SHA-256 digest of a refresh token string.
func HashToken(token string) [HashSize]byte {
	return sha256.Sum256([]byte(token))
}

func hashEqual(a, b [HashSize]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
