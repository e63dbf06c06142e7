package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hex digest of data using the specified algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// ShortHash is the first n hex characters of the BLAKE3 digest of s.
// It is stable across runs, which makes it usable in file names.
func ShortHash(s string, n int) string {
	sum := blake3.Sum256([]byte(s))
	digest := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(digest) {
		return digest
	}
	return digest[:n]
}
