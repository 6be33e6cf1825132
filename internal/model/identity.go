package model

// Identity is the narrow authenticated principal attached to a request
// context after token validation: subject identifier plus role set. It is
// request-scoped and never carries the full user record.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Anonymous reports whether the identity is the zero, unauthenticated value.
func (i Identity) Anonymous() bool {
	return i.Subject == ""
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
