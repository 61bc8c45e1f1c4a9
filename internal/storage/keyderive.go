package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// Encryption errors.
var (
	ErrPassphraseTooWeak = errors.New("storage: passphrase too weak (minimum 8 characters)")
	ErrSaltCorrupted     = errors.New("storage: salt file has unexpected length")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	// Argon2id parameters. The key length selects AES-256 in Badger.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// SaltPath returns where the salt for a data directory is kept.
// It lives beside the directory so Badger never sees a foreign file.
func SaltPath(dir string) string {
	return filepath.Clean(dir) + ".salt"
}

// DeriveKey derives a 32-byte key from passphrase and salt with Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// LoadOrCreateSalt reads the salt at path, creating a random one on first use.
func LoadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(salt) != SaltLength {
			return nil, ErrSaltCorrupted
		}
		return salt, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read salt: %w", err)
	}

	salt = make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create salt dir: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write salt: %w", err)
	}
	return salt, nil
}

// EncryptionKey returns the at-rest key for the data directory dir.
func EncryptionKey(dir, passphrase string) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	salt, err := LoadOrCreateSalt(SaltPath(dir))
	if err != nil {
		return nil, err
	}
	return DeriveKey(passphrase, salt), nil
}
