package helpers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	MagicLinkTokenPrefix = "ml_"
	SessionTokenPrefix   = "ss_"

	tokenEntropyBytes = 32
)

// NewToken returns prefix followed by 256 random bits, base64url encoded.
func NewToken(prefix string) (string, error) {
	b := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// HasTokenPrefix reports whether token belongs to the namespace of prefix.
func HasTokenPrefix(token, prefix string) bool {
	return strings.HasPrefix(token, prefix) && len(token) > len(prefix)
}

// TokenHasher produces the keyed digest under which tokens are stored.
type TokenHasher struct {
	key []byte
}

func NewTokenHasher(pepper string) *TokenHasher {
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &TokenHasher{key: key}
}

func (h *TokenHasher) Digest(token string) string {
	// New256 only fails for keys longer than 64 bytes, which NewTokenHasher rules out.
	m, _ := blake2b.New256(h.key)
	m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}
