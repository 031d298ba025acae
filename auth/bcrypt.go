package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Structs

// BcryptVerifier hashes and verifies credentials
// with bcrypt at a configurable cost.
type BcryptVerifier struct {
	Cost int
}

// Functions

// NewBcryptVerifier takes in a bcrypt cost factor and
// returns an initialized verifier. A cost outside the
// range bcrypt supports is rejected so that an overly
// cheap setting cannot slip in via a config mistake.
func NewBcryptVerifier(cost int) (*BcryptVerifier, error) {

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside supported range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &BcryptVerifier{
		Cost: cost,
	}, nil
}

// Hash derives the bcrypt credential for a
// supplied plaintext password.
func (v *BcryptVerifier) Hash(plain string) (string, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash supplied password: %v", err)
	}

	return string(hash), nil
}

// Compare checks a presented plaintext password
// against a stored bcrypt credential.
func (v *BcryptVerifier) Compare(plain string, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
