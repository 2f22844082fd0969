// Package cryptox hashes user passwords with argon2id.
//
// Hashes are stored as "argon2id$<salt hex>$<key hex>" so the salt travels
// with the digest and the parameters can change later behind a new prefix.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	scheme  = "argon2id"
	saltLen = 16
	keyLen  = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keyLen)
}

// HashPassword returns the encoded salted digest of password.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := deriveKey([]byte(password), salt)
	return scheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

// VerifyPassword compares password against an encoded digest in constant time.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != keyLen {
		return false, ErrMalformedHash
	}

	got := deriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
