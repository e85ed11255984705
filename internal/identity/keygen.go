package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	keyAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	prefixLength = 8
	secretLength = 32
)

// GeneratedKey holds the three derived forms of a freshly minted key. FullKey
// is handed to the caller once; only Prefix and Hash are ever persisted.
type GeneratedKey struct {
	FullKey string
	Prefix  string
	Hash    string
}

// GenerateKey mints a key of the form sk_<8-char-prefix>_<32-char-secret>,
// both parts drawn from the alphanumeric alphabet via crypto/rand.
func GenerateKey() (GeneratedKey, error) {
	prefix, err := randomString(prefixLength)
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomString(secretLength)
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("generate secret: %w", err)
	}

	fullKey := fmt.Sprintf("sk_%s_%s", prefix, secret)
	return GeneratedKey{
		FullKey: fullKey,
		Prefix:  prefix,
		Hash:    HashKey(fullKey),
	}, nil
}

// HashKey returns the hex encoded SHA-256 digest of the full key. This is the
// only form of the secret the system stores.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ParseKey splits a candidate key into its prefix, enforcing the exact
// sk_<8>_<32> shape and alphabet. It reports false for anything else.
func ParseKey(candidate string) (prefix string, ok bool) {
	parts := strings.Split(candidate, "_")
	if len(parts) != 3 || parts[0] != "sk" {
		return "", false
	}
	if len(parts[1]) != prefixLength || len(parts[2]) != secretLength {
		return "", false
	}
	if !alphanumeric(parts[1]) || !alphanumeric(parts[2]) {
		return "", false
	}
	return parts[1], true
}

func alphanumeric(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(keyAlphabet, r) {
			return false
		}
	}
	return true
}

func randomString(length int) (string, error) {
	alphabetLen := big.NewInt(int64(len(keyAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
