package cryptox

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1, err := DeriveKey("secret-password", salt)
	require.NoError(t, err)
	key2, err := DeriveKey("secret-password", salt)
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	salt1 := []byte("0123456789abcdef")
	salt2 := []byte("fedcba9876543210")

	key1, err := DeriveKey("secret-password", salt1)
	require.NoError(t, err)
	key2, err := DeriveKey("secret-password", salt2)
	require.NoError(t, err)
	key3, err := DeriveKey("other-password", salt1)
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
	assert.NotEqual(t, key1, key3)
}

func TestDeriveKey_InvalidSaltSize(t *testing.T) {
	_, err := DeriveKey("pw", []byte("short"))
	require.ErrorIs(t, err, ErrInvalidSaltSize)
}

func TestGenerateSalt(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()
	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	for _, plaintext := range []string{"", "p@ssw0rd!", "пароль", strings.Repeat("x", 1024)} {
		envelope, err := Encrypt(plaintext, key)
		require.NoError(t, err)

		got, err := Decrypt(envelope, key)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	e1, err := Encrypt("same", key)
	require.NoError(t, err)
	e2, err := Encrypt("same", key)
	require.NoError(t, err)

	assert.NotEqual(t, e1, e2)
}

func TestEncrypt_EnvelopeLayout(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	envelope, err := Encrypt("abc", key)
	require.NoError(t, err)

	// unpadded URL-safe base64
	assert.NotContains(t, envelope, "=")
	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	require.NoError(t, err)
	assert.Equal(t, IVSize+TagSize+3, len(raw))
}

func TestDecrypt_WrongKey(t *testing.T) {
	key1, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)
	key2, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	envelope, err := Encrypt("secret", key1)
	require.NoError(t, err)

	_, err = Decrypt(envelope, key2)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestDecrypt_Tampered(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	envelope, err := Encrypt("secret", key)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	_, err = Decrypt(tampered, key)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestDecrypt_PaddingTolerance(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	envelope, err := Encrypt("padded", key)
	require.NoError(t, err)

	// stored values may carry trailing '=' from older clients
	padded := envelope
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}

	got, err := Decrypt(padded, key)
	require.NoError(t, err)
	assert.Equal(t, "padded", got)
}

func TestDecrypt_TooShort(t *testing.T) {
	key, err := DeriveKey("master", GenerateSalt())
	require.NoError(t, err)

	short := base64.RawURLEncoding.EncodeToString(make([]byte, IVSize+TagSize-1))
	_, err = Decrypt(short, key)
	require.ErrorIs(t, err, ErrDecryption)

	_, err = Decrypt("!!!not-base64!!!", key)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestHashAndCheckMasterPassword(t *testing.T) {
	hash, err := HashMasterPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	ok, err := CheckMasterPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckMasterPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckMasterPassword_CorruptHash(t *testing.T) {
	ok, err := CheckMasterPassword("hunter2", "not-a-bcrypt-hash")
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptHash))
}
