package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// NonceLength is the length of a raw sign-in nonce.
const NonceLength = 32

const nonceCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-._"

// GenerateNonce returns n characters drawn uniformly from the nonce charset
// (digits, ASCII letters and "-._"). r should be crypto/rand.Reader outside tests.
func GenerateNonce(r io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(nonceCharset)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, nonceCharset[int(b)%len(nonceCharset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// DigestNonce returns the lowercase hex SHA-256 of a raw nonce.
// The digest is what the identity provider signs into the token's nonce claim.
func DigestNonce(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
