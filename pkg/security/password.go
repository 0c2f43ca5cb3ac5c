package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

// DefaultMinPasswordLen applies when the configured minimum is missing or
// non-positive.
const DefaultMinPasswordLen = 8

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost   int
	minLen int
}

// NewBcryptHasher returns a bcrypt-backed hasher enforcing the configured
// minimum password length. Out-of-range costs fall back to
// bcrypt.DefaultCost.
func NewBcryptHasher(cost, minLen int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLen <= 0 {
		minLen = DefaultMinPasswordLen
	}
	return &bcryptHasher{cost: cost, minLen: minLen}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < b.minLen {
		return "", apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", b.minLen), nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", apperrors.NewInternal(err)
	}
	return string(hash), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return apperrors.Unauthorized(err)
	}
	return nil
}
