// Package credential hashes and verifies user passwords.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input beyond 72 bytes. Longer passwords are
// condensed to a SHA-256 hex digest (64 bytes) before hashing so every byte
// of the password still contributes to the result.
const bcryptMaxBytes = 72

// Hasher produces and verifies salted adaptive password hashes.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher with the given bcrypt cost. Costs outside
// the valid bcrypt range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func normalize(password string) []byte {
	raw := []byte(password)
	if len(raw) <= bcryptMaxBytes {
		return raw
	}
	sum := sha256.Sum256(raw)
	return []byte(hex.EncodeToString(sum[:]))
}

// Hash returns a salted hash of the password. A fresh salt is generated on
// every call, so hashing the same password twice yields different values.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(normalize(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("credential: hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. The comparison
// is constant time with respect to where a mismatch occurs.
func (h *Hasher) Verify(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), normalize(password)) == nil
}
