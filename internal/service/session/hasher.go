package session

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/nkiryanov/petalert/internal/apperrors"
)

// Supported digest algorithms for token values
const (
	DigestMD5    = "md5"
	DigestSHA1   = "sha1"
	DigestSHA256 = "sha256"
)

var digests = map[string]func() hash.Hash{
	DigestMD5:    md5.New,
	DigestSHA1:   sha1.New,
	DigestSHA256: sha256.New,
}

// Hasher turns a seed into an opaque hex token value.
// The digest only has to be unpredictable; secrecy comes from the random part of the seed.
type Hasher struct {
	algorithm string
}

func NewHasher(algorithm string) Hasher {
	return Hasher{algorithm: algorithm}
}

// Digest returns the lower case hex digest of text.
// Unknown algorithm returns apperrors.ErrDigestUnavailable and an empty value.
func (h Hasher) Digest(text string) (string, error) {
	newHash, ok := digests[h.algorithm]
	if !ok {
		return "", apperrors.ErrDigestUnavailable
	}

	sum := newHash()
	_, _ = sum.Write([]byte(text))

	return hex.EncodeToString(sum.Sum(nil)), nil
}

func KnownDigest(algorithm string) bool {
	_, ok := digests[algorithm]
	return ok
}
