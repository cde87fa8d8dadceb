// Package models defines the vault's persistent record types.
package models

// User is a local vault account. ID is the opaque identifier assigned by the
// remote identity provider. Salt is the 16-byte key-derivation salt and is
// distinct from the salt embedded in PasswordHash.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Salt         []byte
}
