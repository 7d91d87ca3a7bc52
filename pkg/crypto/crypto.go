// Package crypto wraps password hashing and random token generation.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("crypto: password must not be empty")
	// ErrPasswordTooLong is returned for passwords longer than MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("crypto: password must be at most 72 bytes")

	cost atomic.Int32
)

func init() {
	cost.Store(int32(bcrypt.DefaultCost))
}

// SetCost changes the bcrypt work factor for new hashes and returns the
// previous one. Out-of-range values are clamped. Existing hashes keep
// verifying since bcrypt records the cost in the hash.
func SetCost(c int) int {
	if c < bcrypt.MinCost {
		c = bcrypt.MinCost
	}
	if c > bcrypt.MaxCost {
		c = bcrypt.MaxCost
	}
	return int(cost.Swap(int32(c)))
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	switch {
	case password == "":
		return "", ErrEmptyPassword
	case len(password) > MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), int(cost.Load()))
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hashedPassword.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken returns length random bytes encoded as unpadded URL-safe base64.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
