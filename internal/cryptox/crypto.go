// Package cryptox implements the cryptographic core of the vault:
// PBKDF2 key derivation, AES-256-GCM credential encryption, and
// bcrypt hashing of the master password.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize = 16     // key-derivation salt size in bytes
	KeySize  = 32     // AES-256 key size
	IVSize   = 12     // GCM nonce size
	TagSize  = 16     // GCM authentication tag size
	KDFIters = 100000 // PBKDF2 iteration count
)

var (
	ErrInvalidSaltSize = errors.New("salt must be exactly 16 bytes")
	ErrDecryption      = errors.New("decryption failed")
	ErrCorruptHash     = errors.New("stored password hash is corrupted")
)

// DeriveKey derives a 32-byte AES key from the master password and the user's
// key-derivation salt. Identical inputs always yield the identical key.
// The derived key is session-scoped and must never be persisted.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, ErrInvalidSaltSize
	}
	return pbkdf2.Key([]byte(password), salt, KDFIters, KeySize, sha256.New), nil
}

// GenerateSalt returns a fresh 16-byte salt from a cryptographically
// secure source.
func GenerateSalt() []byte {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		// crypto/rand failure means the platform RNG is broken;
		// continuing without randomness would be worse than stopping.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return salt
}

// Encrypt seals plaintext with AES-256-GCM under key and returns the envelope
// as unpadded URL-safe base64 of IV(12) || tag(16) || ciphertext.
// A fresh random IV is generated on every call.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	// Seal appends the tag after the ciphertext; the envelope layout
	// carries it between IV and ciphertext.
	sealed := aesgcm.Seal(nil, iv, []byte(plaintext), nil)
	body := sealed[:len(sealed)-TagSize]
	tag := sealed[len(sealed)-TagSize:]

	envelope := make([]byte, 0, IVSize+TagSize+len(body))
	envelope = append(envelope, iv...)
	envelope = append(envelope, tag...)
	envelope = append(envelope, body...)

	return base64.RawURLEncoding.EncodeToString(envelope), nil
}

// Decrypt opens an envelope produced by Encrypt. The base64 text is re-padded
// before decoding, so values stored with or without trailing '=' both decode.
// Returns ErrDecryption if the envelope is malformed, too short, or the
// authentication tag does not verify (tampered data or wrong key).
func Decrypt(envelopeText string, key []byte) (string, error) {
	trimmed := strings.TrimRight(envelopeText, "=")
	if rem := len(trimmed) % 4; rem != 0 {
		trimmed += strings.Repeat("=", 4-rem)
	}
	data, err := base64.URLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(data) < IVSize+TagSize {
		return "", fmt.Errorf("%w: envelope too short", ErrDecryption)
	}

	iv := data[:IVSize]
	tag := data[IVSize : IVSize+TagSize]
	body := data[IVSize+TagSize:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	sealed := make([]byte, 0, len(body)+TagSize)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := aesgcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

// HashMasterPassword hashes the master password with bcrypt. The bcrypt salt
// is self-contained in the hash and is distinct from the key-derivation salt.
func HashMasterPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckMasterPassword verifies password against a stored bcrypt hash.
// A mismatch returns (false, nil); a hash that is not well-formed bcrypt
// returns ErrCorruptHash so callers can tell corruption from a wrong password.
func CheckMasterPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
}
