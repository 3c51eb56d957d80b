// Package auth holds the credential primitives: password hashing, JWT
// issuance and the refresh-token rotation policy.
package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// Hasher wraps bcrypt with a fixed cost. A fresh random salt is
// generated on every Hash call by the underlying implementation.
type Hasher struct{ cost int }

// NewHasher returns a Hasher with the given cost, clamped into bcrypt's
// valid range. Pass 0 for the default cost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the plaintext.
func (h Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares hash and plaintext. It returns false for any failure,
// including a malformed hash, so callers can treat every outcome other
// than a clean match as an authentication failure.
func (h Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
