package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"falcon-hq/core/utils"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

// HashPassword derives an argon2id key from the password concatenated with
// the server-side pepper. The salt is per-user and stored next to the hash;
// the pepper lives only in configuration.
func HashPassword(password, pepper string) (hash, salt string, err error) {
	rawSalt, err := utils.RandBytes(saltLen)
	if err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := deriveKey(password, pepper, rawSalt)
	return base64.RawStdEncoding.EncodeToString(key),
		base64.RawStdEncoding.EncodeToString(rawSalt), nil
}

func VerifyPassword(password, pepper, hash, salt string) (bool, error) {
	if hash == "" || salt == "" {
		return false, nil
	}
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	key := deriveKey(password, pepper, rawSalt)
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func deriveKey(password, pepper string, salt []byte) []byte {
	input := append([]byte(password), []byte(pepper)...)
	return argon2.IDKey(input, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
