package upload

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest is the hex blake2b-256 sum of content, logged for every stored file.
func Digest(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}
