// Package cryptox implements password hashing for stored credentials:
// a memory-hard scrypt digest over a per-user printable salt.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. Changing them invalidates every stored digest.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
)

// Salt length bounds, inclusive.
const (
	MinSaltLen = 12
	MaxSaltLen = 28
)

// Hasher turns a password and salt into a stored digest.
type Hasher interface {
	Hash(password, salt string) (string, error)
}

// ScryptHasher is the production Hasher.
type ScryptHasher struct{}

// Hash returns the hex-encoded scrypt digest of password under salt.
func (ScryptHasher) Hash(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Verify recomputes the digest and compares it to want in constant time.
func Verify(h Hasher, password, salt, want string) (bool, error) {
	got, err := h.Hash(password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1, nil
}

// GenerateSalt returns between MinSaltLen and MaxSaltLen random characters
// drawn from printable ASCII (0x20-0x7E).
func GenerateSalt() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxSaltLen-MinSaltLen+1))
	if err != nil {
		return "", err
	}
	size := MinSaltLen + int(n.Int64())

	const span = 0x7E - 0x20 + 1
	out := make([]byte, 0, size)
	buf := make([]byte, size)
	for len(out) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// reject the tail so every printable byte is equally likely
			if int(b) >= 256-256%span {
				continue
			}
			out = append(out, byte(0x20+int(b)%span))
			if len(out) == size {
				break
			}
		}
	}
	return string(out), nil
}
