package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ekdahl/libris-auth/internal/guard"
	"github.com/ekdahl/libris-auth/internal/mocks"
	"github.com/ekdahl/libris-auth/internal/model"
	"github.com/ekdahl/libris-auth/internal/password"
	"github.com/ekdahl/libris-auth/internal/testutil"
)

func testUser(t *testing.T, email, rawPassword string, roles ...string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return model.User{Email: email, PasswordHash: string(hash), Roles: roles}
}

func newAuth(users model.UserStore, tokens model.TokenManager, revoked model.RevocationStore, g LoginGuard) *Auth {
	if g == nil {
		g = guard.NewLogin(5, time.Minute, 15*time.Minute)
	}
	return NewAuth(users, tokens, revoked, g, password.NewBcrypt(bcrypt.MinCost), testutil.MakeNoopLogger())
}

func TestAuth_Login_Success(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "a@b.com", "s3cret", "USER")

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	users.On("GetByEmail", ctx, "a@b.com").Return(user, nil).Once()
	tokens.On("IssueAccessToken", model.Identity{Subject: "a@b.com", Roles: []string{"USER"}}).
		Return("access", nil).Once()
	tokens.On("IssueRefreshToken", "a@b.com").Return("refresh", nil).Once()

	svc := newAuth(users, tokens, &mocks.RevocationStore{}, nil)

	pair, err := svc.Login(ctx, "A@B.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
	tokens.AssertExpectations(t)
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserStore{}
	users.On("GetByEmail", ctx, "ghost@b.com").Return(model.User{}, model.ErrNotFound).Once()

	svc := newAuth(users, &mocks.TokenManager{}, &mocks.RevocationStore{}, nil)

	_, err := svc.Login(ctx, "ghost@b.com", "whatever")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "a@b.com", "s3cret", "USER")

	users := &mocks.UserStore{}
	users.On("GetByEmail", ctx, "a@b.com").Return(user, nil).Once()

	svc := newAuth(users, &mocks.TokenManager{}, &mocks.RevocationStore{}, nil)

	_, err := svc.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_LockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserStore{}
	users.On("GetByEmail", ctx, "a@b.com").Return(model.User{}, model.ErrNotFound).Times(5)

	svc := newAuth(users, &mocks.TokenManager{}, &mocks.RevocationStore{}, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "a@b.com", "guess")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	}

	// Locked now; the user store is not consulted anymore.
	_, err := svc.Login(ctx, "a@b.com", "guess")
	var locked *model.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, int64(0))
	assert.LessOrEqual(t, locked.RetryAfter, int64(15*60))
	users.AssertExpectations(t)
}

func TestAuth_Login_SuccessResetsGuard(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "a@b.com", "s3cret", "USER")

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	users.On("GetByEmail", ctx, "a@b.com").Return(user, nil)
	tokens.On("IssueAccessToken", mock.Anything).Return("access", nil)
	tokens.On("IssueRefreshToken", "a@b.com").Return("refresh", nil)

	g := guard.NewLogin(3, time.Minute, 15*time.Minute)
	svc := newAuth(users, tokens, &mocks.RevocationStore{}, g)

	_, err := svc.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "a@b.com", "s3cret")
	require.NoError(t, err)

	// Counter back at zero; two more failures stay under the threshold.
	_, err = svc.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.False(t, g.IsLocked("a@b.com"))
}

func TestAuth_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "a@b.com", "s3cret", "USER", "ADMIN")

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	tokens.On("ParseRefreshToken", "refresh").Return("a@b.com", nil).Once()
	users.On("GetByEmail", ctx, "a@b.com").Return(user, nil).Once()
	// Roles come from current user state, not from the old token.
	tokens.On("IssueAccessToken", model.Identity{Subject: "a@b.com", Roles: []string{"USER", "ADMIN"}}).
		Return("access-new", nil).Once()

	svc := newAuth(users, tokens, &mocks.RevocationStore{}, nil)

	pair, err := svc.Refresh(ctx, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "access-new", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
	tokens.AssertExpectations(t)
}

func TestAuth_Refresh_InvalidToken(t *testing.T) {
	ctx := context.Background()

	tokens := &mocks.TokenManager{}
	tokens.On("ParseRefreshToken", "bad").Return("", model.ErrTokenInvalid).Once()

	svc := newAuth(&mocks.UserStore{}, tokens, &mocks.RevocationStore{}, nil)

	_, err := svc.Refresh(ctx, "bad")
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Refresh_UserGone(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	tokens.On("ParseRefreshToken", "refresh").Return("gone@b.com", nil).Once()
	users.On("GetByEmail", ctx, "gone@b.com").Return(model.User{}, model.ErrNotFound).Once()

	svc := newAuth(users, tokens, &mocks.RevocationStore{}, nil)

	_, err := svc.Refresh(ctx, "refresh")
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Logout_RevokesUntilTokenExpiry(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(10 * time.Minute)

	tokens := &mocks.TokenManager{}
	revoked := &mocks.RevocationStore{}
	tokens.On("ExpiresAt", "token").Return(exp, nil).Once()
	revoked.On("Revoke", ctx, "token", exp).Return(nil).Once()

	svc := newAuth(&mocks.UserStore{}, tokens, revoked, nil)

	require.NoError(t, svc.Logout(ctx, "token"))
	revoked.AssertExpectations(t)
}

func TestAuth_Logout_MalformedToken(t *testing.T) {
	ctx := context.Background()

	tokens := &mocks.TokenManager{}
	tokens.On("ExpiresAt", "garbage").Return(time.Time{}, model.ErrTokenInvalid).Once()

	svc := newAuth(&mocks.UserStore{}, tokens, &mocks.RevocationStore{}, nil)

	require.ErrorIs(t, svc.Logout(ctx, "garbage"), model.ErrTokenInvalid)
}

func TestAuth_Authenticate_Success(t *testing.T) {
	ctx := context.Background()
	user := testUser(t, "a@b.com", "s3cret", "USER", "ADMIN")

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	revoked := &mocks.RevocationStore{}
	// The token was issued before the role change; current roles win.
	tokens.On("ParseAccessToken", "token").
		Return(model.Identity{Subject: "a@b.com", Roles: []string{"USER"}}, nil).Once()
	revoked.On("IsRevoked", ctx, "token").Return(false, nil).Once()
	users.On("GetByEmail", ctx, "a@b.com").Return(user, nil).Once()
	tokens.On("IssueAccessToken", model.Identity{Subject: "a@b.com", Roles: []string{"USER", "ADMIN"}}).
		Return("renewed", nil).Once()

	svc := newAuth(users, tokens, revoked, nil)

	identity, renewed, err := svc.Authenticate(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity.Subject)
	assert.Equal(t, []string{"USER", "ADMIN"}, identity.Roles)
	assert.Equal(t, "renewed", renewed)
}

func TestAuth_Authenticate_Revoked(t *testing.T) {
	ctx := context.Background()

	tokens := &mocks.TokenManager{}
	revoked := &mocks.RevocationStore{}
	tokens.On("ParseAccessToken", "token").
		Return(model.Identity{Subject: "a@b.com"}, nil).Once()
	revoked.On("IsRevoked", ctx, "token").Return(true, nil).Once()

	svc := newAuth(&mocks.UserStore{}, tokens, revoked, nil)

	_, _, err := svc.Authenticate(ctx, "token")
	require.ErrorIs(t, err, model.ErrTokenRevoked)
}

func TestAuth_Authenticate_InvalidToken(t *testing.T) {
	ctx := context.Background()

	tokens := &mocks.TokenManager{}
	tokens.On("ParseAccessToken", "bad").Return(model.Identity{}, model.ErrTokenInvalid).Once()

	svc := newAuth(&mocks.UserStore{}, tokens, &mocks.RevocationStore{}, nil)

	_, _, err := svc.Authenticate(ctx, "bad")
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestAuth_Authenticate_UserGone(t *testing.T) {
	ctx := context.Background()

	users := &mocks.UserStore{}
	tokens := &mocks.TokenManager{}
	revoked := &mocks.RevocationStore{}
	tokens.On("ParseAccessToken", "token").
		Return(model.Identity{Subject: "gone@b.com"}, nil).Once()
	revoked.On("IsRevoked", ctx, "token").Return(false, nil).Once()
	users.On("GetByEmail", ctx, "gone@b.com").Return(model.User{}, model.ErrNotFound).Once()

	svc := newAuth(users, tokens, revoked, nil)

	_, _, err := svc.Authenticate(ctx, "token")
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}
