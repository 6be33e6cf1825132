package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ekdahl/libris-auth/internal/model"
)

// Claims represents JWT claims with token type and the embedded role set.
// Roles is present on access tokens only; refresh tokens carry the subject
// alone so privileges are re-derived from current user state on use.
type Claims struct {
	jwt.RegisteredClaims
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"typ"`
}

// JWT implements model.TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
	typeAccess        = "access"
	typeRefresh       = "refresh"
)

// NewJWT creates a token manager with the provided secret key and lifetimes.
// Non-positive lifetimes fall back to the defaults.
func NewJWT(secretKey string, accessTTL, refreshTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &JWT{secretKey: secretKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

var _ model.TokenManager = (*JWT)(nil)

// IssueAccessToken creates a short-lived access token carrying the subject
// and the role set as issued.
func (j *JWT) IssueAccessToken(identity model.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Roles:     identity.Roles,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// IssueRefreshToken creates a long-lived refresh token without a role claim.
func (j *JWT) IssueRefreshToken(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		TokenType: typeRefresh,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken verifies signature, expiry and token type. Every failure
// collapses into model.ErrTokenInvalid; the token is never partially trusted.
func (j *JWT) ParseAccessToken(tokenString string) (model.Identity, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return model.Identity{}, err
	}
	if claims.TokenType != typeAccess {
		return model.Identity{}, fmt.Errorf("%w: token type mismatch", model.ErrTokenInvalid)
	}
	return model.Identity{Subject: claims.Subject, Roles: claims.Roles}, nil
}

// ParseRefreshToken verifies signature, expiry and token type and returns the
// subject identifier.
func (j *JWT) ParseRefreshToken(tokenString string) (string, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != typeRefresh {
		return "", fmt.Errorf("%w: token type mismatch", model.ErrTokenInvalid)
	}
	return claims.Subject, nil
}

// Subject extracts the subject from a token whose signature verifies. Expiry
// is not checked here; callers that need a live token use ParseAccessToken.
func (j *JWT) Subject(tokenString string) (string, error) {
	claims, err := j.parseUnvalidated(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExpiresAt extracts the expiry instant from a token whose signature
// verifies. An already-expired token still yields its expiry, so revoking it
// stays a safe no-op.
func (j *JWT) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := j.parseUnvalidated(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry", model.ErrTokenInvalid)
	}
	return claims.ExpiresAt.Time, nil
}

func (j *JWT) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}

func (j *JWT) parseUnvalidated(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}

func (j *JWT) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
	}
	return []byte(j.secretKey), nil
}
