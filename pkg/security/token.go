package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// TokenBytes is the amount of entropy behind every opaque token.
const TokenBytes = 32

// APIKeyPrefixLen is how many leading characters of a raw API key are stored
// in clear to narrow the candidate set during lookup.
const APIKeyPrefixLen = 8

var tempPasswordCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// TokenGenerator produces opaque random strings.
type TokenGenerator func() (string, error)

// GenerateToken returns 32 random bytes, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// APIKeyPrefix returns the non-secret lookup prefix of a raw API key.
func APIKeyPrefix(raw string) string {
	if len(raw) <= APIKeyPrefixLen {
		return raw
	}
	return raw[:APIKeyPrefixLen]
}

// GenerateTempPassword produces a random alphanumeric string suitable for
// one-off credentials handed to an operator.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	max := big.NewInt(int64(len(tempPasswordCharset)))
	result := make([]rune, length)
	for i := range result {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = tempPasswordCharset[idx.Int64()]
	}
	return string(result), nil
}
