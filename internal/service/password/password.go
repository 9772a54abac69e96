// Package password stores and checks user passwords.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password modes
const (
	ModePlain  = "plain"
	ModeBcrypt = "bcrypt"
)

var ErrMismatch = errors.New("password does not match")

// Hasher creates stored password values and compares them with user input
type Hasher interface {
	// Hash returns the value to store for password
	Hash(password string) (string, error)

	// Compare known stored value and user provided password
	// Must be protected against timing attacks
	Compare(stored string, password string) error
}

// New returns the hasher for the mode; empty mode is plain
func New(mode string) (Hasher, error) {
	switch mode {
	case "", ModePlain:
		return PlainHasher{}, nil
	case ModeBcrypt:
		return BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password mode %q", mode)
	}
}

// PlainHasher keeps passwords as is.
// Compatible with databases filled by older deployments.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Compare(stored string, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrMismatch
	}
	return nil
}

// BcryptHasher stores bcrypt of the password sha256 sum, so passwords longer than 72 bytes still count
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	return string(hash), err
}

func (BcryptHasher) Compare(stored string, password string) error {
	sum := sha256.Sum256([]byte(password))

	err := bcrypt.CompareHashAndPassword([]byte(stored), sum[:])
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
