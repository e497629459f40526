package domain

// AuthenticatedUser is the identity supplied by the external auth provider on
// each request. The engine trusts it as given.
type AuthenticatedUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TokenVerifier verifies a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (AuthenticatedUser, error)
}

// AdminKeyVerifier checks the key presented to administrative endpoints.
type AdminKeyVerifier interface {
	Verify(key string) error
}
