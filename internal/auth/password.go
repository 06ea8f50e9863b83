package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	rounds int
}

// NewHasher returns a Hasher using the given cost, clamped to bcrypt's
// bounds.
func NewHasher(rounds int) Hasher {
	if rounds < bcrypt.MinCost {
		rounds = bcrypt.MinCost
	}
	if rounds > bcrypt.MaxCost {
		rounds = bcrypt.MaxCost
	}
	return Hasher{rounds: rounds}
}

// Hash returns the bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.rounds)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether password matches hash. Malformed hashes count as
// a mismatch.
func (h Hasher) Compare(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
