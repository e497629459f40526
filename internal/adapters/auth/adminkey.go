package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"smartvote/internal/domain"
)

type bcryptKeyVerifier struct {
	hash []byte
}

// NewAdminKeyVerifier returns an AdminKeyVerifier that compares presented keys
// against a bcrypt hash. An empty hash rejects every key.
func NewAdminKeyVerifier(hash string) domain.AdminKeyVerifier {
	return &bcryptKeyVerifier{hash: []byte(hash)}
}

func (v *bcryptKeyVerifier) Verify(key string) error {
	if len(v.hash) == 0 {
		return fmt.Errorf("%w: admin key not configured", domain.ErrUnauthorized)
	}
	if key == "" {
		return fmt.Errorf("%w: admin key required", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(key)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return nil
}

// HashAdminKey returns the bcrypt hash to store in ADMIN_KEY_HASH.
func HashAdminKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(hash), nil
}
