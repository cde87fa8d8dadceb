// Package passgen generates random passwords and scores password strength.
package passgen

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode"
)

const (
	lower   = "abcdefghijklmnopqrstuvwxyz"
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	special = "!@#$%^&*()-_=+[]{};:,.?/"
)

// ErrBadLength is returned when the requested password cannot satisfy the
// constraints.
var ErrBadLength = errors.New("password length too short for requested constraints")

// Generate returns a random password of the given length containing at least
// minSpecial special characters, at least one lower-case letter, one
// upper-case letter, and one digit. Randomness comes from crypto/rand.
func Generate(length, minSpecial int) (string, error) {
	if minSpecial < 0 {
		minSpecial = 0
	}
	// three mandatory classes plus the requested specials must fit
	if length < minSpecial+3 {
		return "", ErrBadLength
	}

	chars := make([]byte, 0, length)
	for i := 0; i < minSpecial; i++ {
		chars = append(chars, pick(special))
	}
	chars = append(chars, pick(lower), pick(upper), pick(digits))
	for len(chars) < length {
		chars = append(chars, pick(lower+upper+digits+special))
	}

	shuffle(chars)
	return string(chars), nil
}

func pick(alphabet string) byte {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		panic(err)
	}
	return alphabet[n.Int64()]
}

func shuffle(b []byte) {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			panic(err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
}

// Strength labels returned by Score.
const (
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

// Score rates a password by length and character-class variety: one point
// per class (lower, upper, digit, special), plus one for length >= 8 and one
// more for length >= 12. Up to 2 points is weak, up to 4 medium, above that
// strong.
func Score(password string) string {
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(special, r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	points := 0
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSpecial} {
		if ok {
			points++
		}
	}
	if len(password) >= 8 {
		points++
	}
	if len(password) >= 12 {
		points++
	}

	switch {
	case points <= 2:
		return StrengthWeak
	case points <= 4:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}
