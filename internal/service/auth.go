package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ekdahl/libris-auth/internal/logger"
	"github.com/ekdahl/libris-auth/internal/model"
)

// LoginGuard tracks failed login attempts per key and enforces lockout.
type LoginGuard interface {
	IsLocked(key string) bool
	SecondsUntilUnlock(key string) int64
	RecordFailure(key string)
	RecordSuccess(key string)
}

// Auth implements the login, refresh, logout and per-request authentication
// flows on top of the token manager, the revocation store, the login guard
// and the external user lookup.
type Auth struct {
	users     model.UserStore
	tokens    model.TokenManager
	revoked   model.RevocationStore
	guard     LoginGuard
	passwords model.PasswordVerifier
	logger    *logger.Logger
}

// NewAuth creates the auth service.
func NewAuth(
	users model.UserStore,
	tokens model.TokenManager,
	revoked model.RevocationStore,
	guard LoginGuard,
	passwords model.PasswordVerifier,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		guard:     guard,
		passwords: passwords,
		logger:    logger,
	}
}

// Login verifies credentials behind the brute-force guard and issues an
// access/refresh token pair. An unknown email and a wrong password produce
// the same model.ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	key := normalizeEmail(email)

	if a.guard.IsLocked(key) {
		retryAfter := a.guard.SecondsUntilUnlock(key)
		a.logger.Info("Auth service: login rejected, account locked",
			"email", key,
			"retry_after_seconds", retryAfter)
		return model.TokenPair{}, &model.AccountLockedError{RetryAfter: retryAfter}
	}

	user, err := a.users.GetByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.guard.RecordFailure(key)
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", key,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.passwords.Matches(password, user.PasswordHash) {
		a.guard.RecordFailure(key)
		a.logger.Info("Auth service: login failed", "email", key)
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	a.guard.RecordSuccess(key)

	pair, err := a.issuePair(model.Identity{Subject: user.Email, Roles: user.Roles})
	if err != nil {
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: login succeeded", "email", key)
	return pair, nil
}

// Refresh validates a refresh token, re-resolves the user so roles come from
// current state, and returns a new access token paired with the same refresh
// token. Refresh tokens are not checked against the revocation store.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	subject, err := a.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := a.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.ErrTokenInvalid
		}
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	access, err := a.tokens.IssueAccessToken(model.Identity{Subject: user.Email, Roles: user.Roles})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout revokes the presented token until its own expiry, so the revocation
// entry never outlives the token's natural validity.
func (a *Auth) Logout(ctx context.Context, token string) error {
	expiresAt, err := a.tokens.ExpiresAt(token)
	if err != nil {
		return err
	}

	if err := a.revoked.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	a.logger.Info("Auth service: token revoked on logout")
	return nil
}

// Authenticate runs the token part of the request pipeline: validate, check
// revocation, re-resolve the identity from current user state, and mint a
// renewal access token for sliding sessions. Invalid and revoked tokens are
// reported as distinct errors so callers can log them apart, but both must
// result in the same anonymous outcome.
func (a *Auth) Authenticate(ctx context.Context, token string) (model.Identity, string, error) {
	claimed, err := a.tokens.ParseAccessToken(token)
	if err != nil {
		return model.Identity{}, "", err
	}

	revoked, err := a.revoked.IsRevoked(ctx, token)
	if err != nil {
		return model.Identity{}, "", fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return model.Identity{}, "", model.ErrTokenRevoked
	}

	user, err := a.users.GetByEmail(ctx, claimed.Subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, "", model.ErrTokenInvalid
		}
		return model.Identity{}, "", fmt.Errorf("failed to get user by email: %w", err)
	}

	identity := model.Identity{Subject: user.Email, Roles: user.Roles}

	renewed, err := a.tokens.IssueAccessToken(identity)
	if err != nil {
		return model.Identity{}, "", fmt.Errorf("failed to issue renewal token: %w", err)
	}

	return identity, renewed, nil
}

func (a *Auth) issuePair(identity model.Identity) (model.TokenPair, error) {
	access, err := a.tokens.IssueAccessToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := a.tokens.IssueRefreshToken(identity.Subject)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
