// Package crypto seals small local records (the kiosk session) with a
// device passphrase. Key derivation is PBKDF2-SHA256, encryption is
// AES-256-GCM, and sealed blobs are self-contained base64 strings
// carrying their own salt and nonce.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize    = 32
	nonceSize  = 12
	saltSize   = 32
	iterations = 100000
)

// Sealer encrypts and decrypts blobs under a device passphrase.
type Sealer struct {
	passphrase []byte
}

// NewSealer creates a sealer for the given passphrase.
func NewSealer(passphrase string) *Sealer {
	return &Sealer{passphrase: []byte(passphrase)}
}

// Seal encrypts plaintext and returns a base64 blob of salt + nonce +
// ciphertext. Each call uses a fresh salt, so sealing the same plaintext
// twice yields different blobs.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decrypts a blob produced by Seal. A wrong passphrase or tampered
// blob fails authentication.
func (s *Sealer) Open(encoded string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob: %w", err)
	}
	if len(blob) < saltSize+nonceSize {
		return nil, fmt.Errorf("blob too short: %d bytes", len(blob))
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(s.passphrase, salt, iterations, keySize, sha256.New)
	defer SecureZero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// GeneratePassphrase generates a random passphrase for a fresh device.
func GeneratePassphrase(length int) (string, error) {
	if length < 16 {
		return "", fmt.Errorf("passphrase length must be at least 16 characters")
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// SecureZero zeros out sensitive byte slices.
func SecureZero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
