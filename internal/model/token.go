package model

import "time"

// TokenManager issues and validates signed access/refresh tokens.
//
// Access tokens embed the role set at issuance time; refresh tokens carry the
// subject only, so roles are always re-derived from current user state when a
// refresh token is used.
type TokenManager interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(subject string) (string, error)
	ParseAccessToken(token string) (Identity, error)
	ParseRefreshToken(token string) (subject string, err error)
	Subject(token string) (string, error)
	ExpiresAt(token string) (time.Time, error)
}
