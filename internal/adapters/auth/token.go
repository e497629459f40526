package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"smartvote/internal/domain"
)

type identityClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

type jwtVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier returns a TokenVerifier for HS256 tokens signed with secret.
// The subject claim becomes the user id and the name claim the display name.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *jwtVerifier) Verify(tokenString string) (domain.AuthenticatedUser, error) {
	claims := &identityClaims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.AuthenticatedUser{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return domain.AuthenticatedUser{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return domain.AuthenticatedUser{ID: sub, DisplayName: strings.TrimSpace(claims.Name)}, nil
}
