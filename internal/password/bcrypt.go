package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ekdahl/libris-auth/internal/model"
)

// Bcrypt hashes and verifies passwords with the bcrypt KDF.
type Bcrypt struct {
	cost int
}

var _ model.PasswordVerifier = (*Bcrypt)(nil)

// NewBcrypt creates a verifier with the given cost; values outside the bcrypt
// range fall back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash derives a salted hash for storage.
func (b *Bcrypt) Hash(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether raw corresponds to the stored hash.
func (b *Bcrypt) Matches(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
