// Package crypto encrypts database passwords before they reach the store.
// Passwords are the only secret-bearing field: connection strings stay in
// cleartext so exact-duplicate detection can run against them in SQL.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when a stored secret cannot be decrypted.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

// SecretCipher applies AES-256-GCM to stored passwords. GCM gives both
// confidentiality and integrity, so a tampered row fails to decrypt rather
// than yielding garbage credentials.
type SecretCipher struct {
	gcm cipher.AEAD
}

// NewSecretCipher builds a cipher from a key string. A base64 value that
// decodes to exactly 32 bytes (openssl rand -base64 32) is used directly;
// anything else is treated as a passphrase and hashed to 32 bytes with
// SHA-256.
func NewSecretCipher(keyInput string) (*SecretCipher, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	var key []byte
	decoded, err := base64.StdEncoding.DecodeString(keyInput)
	if err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		hash := sha256.Sum256([]byte(keyInput))
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &SecretCipher{gcm: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag). The empty string is a
// legal password (it means "no password") and round-trips as-is.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Empty input returns empty output.
func (c *SecretCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

// EncryptPtr encrypts an optional password. A nil pointer stays nil so the
// store can distinguish "never set" from "set to empty".
func (c *SecretCipher) EncryptPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	enc, err := c.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

// DecryptPtr reverses EncryptPtr.
func (c *SecretCipher) DecryptPtr(encrypted *string) (*string, error) {
	if encrypted == nil {
		return nil, nil
	}
	dec, err := c.Decrypt(*encrypted)
	if err != nil {
		return nil, err
	}
	return &dec, nil
}
