// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/platform/sec"
	"github.com/sentra-labs/sentra/internal/users/auth"
)

// # Test Doubles

type stubUserRepository struct {
	usersByEmail map[string]*auth.User
	usersByID    map[string]*auth.User

	passwordUpdates map[string]string
	lastLoginTouch  []string
}

func newStubUserRepository(users ...*auth.User) *stubUserRepository {
	repo := &stubUserRepository{
		usersByEmail:    map[string]*auth.User{},
		usersByID:       map[string]*auth.User{},
		passwordUpdates: map[string]string{},
	}
	for _, user := range users {
		repo.usersByEmail[user.Email] = user
		repo.usersByID[user.ID] = user
	}
	return repo
}

func (r *stubUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.usersByID[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *stubUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if user, ok := r.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *stubUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	r.passwordUpdates[userID] = newHash
	return nil
}

func (r *stubUserRepository) TouchLastLogin(_ context.Context, userID string) error {
	r.lastLoginTouch = append(r.lastLoginTouch, userID)
	return nil
}

type stubSessionRepository struct {
	sessions map[string]*auth.Session // keyed by token hash

	created        []*auth.Session
	revokedIDs     []string
	revokedAllFor  []string
	revokedOthers  []string
	deletedExpired int
}

func newStubSessionRepository() *stubSessionRepository {
	return &stubSessionRepository{sessions: map[string]*auth.Session{}}
}

func (r *stubSessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.created = append(r.created, session)
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *stubSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	session, ok := r.sessions[tokenHash]
	if !ok || session.IsRevoked {
		return nil, apperr.NotFound("Session")
	}
	return session, nil
}

func (r *stubSessionRepository) FindActiveByUserID(_ context.Context, userID string) ([]auth.Session, error) {
	var active []auth.Session
	for _, session := range r.sessions {
		if session.UserID == userID && !session.IsRevoked {
			active = append(active, *session)
		}
	}
	return active, nil
}

func (r *stubSessionRepository) Revoke(_ context.Context, sessionID string) error {
	r.revokedIDs = append(r.revokedIDs, sessionID)
	for _, session := range r.sessions {
		if session.ID == sessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (r *stubSessionRepository) RevokeAll(_ context.Context, userID string) error {
	r.revokedAllFor = append(r.revokedAllFor, userID)
	return nil
}

func (r *stubSessionRepository) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	r.revokedOthers = append(r.revokedOthers, userID+":"+currentSessionID)
	return nil
}

func (r *stubSessionRepository) DeleteExpired(_ context.Context) error {
	r.deletedExpired++
	return nil
}

type stubResetTokenRepository struct {
	tokens  map[string]string
	deleted []string
}

func newStubResetTokenRepository() *stubResetTokenRepository {
	return &stubResetTokenRepository{tokens: map[string]string{}}
}

func (r *stubResetTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	r.tokens[token] = userID
	return nil
}

func (r *stubResetTokenRepository) Get(_ context.Context, token string) (string, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return "", apperr.Unauthorized("Invalid or expired reset token")
	}
	return userID, nil
}

func (r *stubResetTokenRepository) Delete(_ context.Context, token string) error {
	r.deleted = append(r.deleted, token)
	delete(r.tokens, token)
	return nil
}

type stubTokenProvider struct{}

func (stubTokenProvider) GenerateAccessToken(_ access.CallerIdentity, _ time.Duration) (string, error) {
	return "signed-access-token", nil
}

// # Fixtures

func activeUser(t *testing.T, email, password string) *auth.User {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	return &auth.User{
		ID:           "10000000-0000-0000-0000-000000000001",
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Avery",
		LastName:     "Chen",
		Role:         access.RoleManager,
		Status:       auth.StatusValidated,
		CompanyIDs:   []string{"c0000000-0000-0000-0000-000000000001"},
	}
}

func newService(users *stubUserRepository, sessions *stubSessionRepository, resets *stubResetTokenRepository) *auth.Service {
	return auth.NewService(users, sessions, resets, stubTokenProvider{})
}

// # Tests

/*
TestService_Login covers credential verification and session establishment.
*/
func TestService_Login(t *testing.T) {
	t.Run("valid_credentials_issue_tokens", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "correct horse battery")
		users := newStubUserRepository(user)
		sessions := newStubSessionRepository()

		service := newService(users, sessions, newStubResetTokenRepository())

		login, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "avery@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)

		assert.Equal(t, "signed-access-token", login.AccessToken)
		assert.NotEmpty(t, login.RefreshToken)
		assert.True(t, login.RefreshTokenExpiresAt.After(time.Now()))

		require.Len(t, sessions.created, 1)
		assert.Equal(t, user.ID, sessions.created[0].UserID)
		assert.Equal(t, sec.HashToken(login.RefreshToken), sessions.created[0].TokenHash)

		assert.Equal(t, []string{user.ID}, users.lastLoginTouch)
		assert.Equal(t, 1, sessions.deletedExpired)
	})

	t.Run("client_metadata_stored_as_plain_text", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "correct horse battery")
		sessions := newStubSessionRepository()
		service := newService(newStubUserRepository(user), sessions, newStubResetTokenRepository())

		// A proxied request can arrive without a resolvable client address;
		// the session row stores whatever text the transport reported.
		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:      "avery@example.com",
			Password:   "correct horse battery",
			DeviceName: "Pixel 9",
			UserAgent:  "okhttp/4.12",
			IPAddress:  "",
		})
		require.NoError(t, err)

		require.Len(t, sessions.created, 1)
		assert.Equal(t, "Pixel 9", sessions.created[0].DeviceName)
		assert.Equal(t, "okhttp/4.12", sessions.created[0].UserAgent)
		assert.Equal(t, "", sessions.created[0].IPAddress)
	})

	t.Run("wrong_password_unauthorized", func(t *testing.T) {
		users := newStubUserRepository(activeUser(t, "avery@example.com", "correct horse battery"))
		service := newService(users, newStubSessionRepository(), newStubResetTokenRepository())

		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "avery@example.com",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("unknown_email_unauthorized", func(t *testing.T) {
		service := newService(newStubUserRepository(), newStubSessionRepository(), newStubResetTokenRepository())

		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "nobody@example.com",
			Password: "irrelevant",
		})
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("suspended_account_forbidden", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "correct horse battery")
		user.Status = auth.StatusSuspended

		service := newService(newStubUserRepository(user), newStubSessionRepository(), newStubResetTokenRepository())

		_, err := service.Login(context.Background(), auth.LoginInput{
			Email:    "avery@example.com",
			Password: "correct horse battery",
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_RefreshSession covers refresh-token rotation.
*/
func TestService_RefreshSession(t *testing.T) {
	t.Run("valid_token_rotates_session", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "correct horse battery")
		users := newStubUserRepository(user)
		sessions := newStubSessionRepository()

		oldToken := "old-refresh-token"
		oldSession := &auth.Session{
			ID:        "s0000000-0000-0000-0000-000000000001",
			UserID:    user.ID,
			TokenHash: sec.HashToken(oldToken),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, sessions.Create(context.Background(), oldSession))
		sessions.created = nil

		service := newService(users, sessions, newStubResetTokenRepository())

		login, err := service.RefreshSession(context.Background(), oldToken, "agent", "10.0.0.1")
		require.NoError(t, err)

		assert.NotEmpty(t, login.RefreshToken)
		assert.NotEqual(t, oldToken, login.RefreshToken)

		// The old session is revoked before the new one is minted.
		assert.Contains(t, sessions.revokedIDs, oldSession.ID)
		require.Len(t, sessions.created, 1)
		assert.Equal(t, user.ID, sessions.created[0].UserID)
	})

	t.Run("unknown_token_unauthorized", func(t *testing.T) {
		service := newService(newStubUserRepository(), newStubSessionRepository(), newStubResetTokenRepository())

		_, err := service.RefreshSession(context.Background(), "forged", "agent", "10.0.0.1")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("suspension_applies_on_refresh", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "correct horse battery")
		user.Status = auth.StatusSuspended
		sessions := newStubSessionRepository()

		token := "still-held-token"
		require.NoError(t, sessions.Create(context.Background(), &auth.Session{
			ID:        "s0000000-0000-0000-0000-000000000002",
			UserID:    user.ID,
			TokenHash: sec.HashToken(token),
			ExpiresAt: time.Now().Add(time.Hour),
		}))

		service := newService(newStubUserRepository(user), sessions, newStubResetTokenRepository())

		_, err := service.RefreshSession(context.Background(), token, "agent", "10.0.0.1")
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	})
}

/*
TestService_Logout verifies revocation and its idempotency.
*/
func TestService_Logout(t *testing.T) {
	t.Run("known_token_revokes_session", func(t *testing.T) {
		sessions := newStubSessionRepository()
		token := "live-token"
		require.NoError(t, sessions.Create(context.Background(), &auth.Session{
			ID:        "s0000000-0000-0000-0000-000000000003",
			UserID:    "u-1",
			TokenHash: sec.HashToken(token),
		}))

		service := newService(newStubUserRepository(), sessions, newStubResetTokenRepository())

		require.NoError(t, service.Logout(context.Background(), token))
		assert.Contains(t, sessions.revokedIDs, "s0000000-0000-0000-0000-000000000003")
	})

	t.Run("unknown_token_is_noop", func(t *testing.T) {
		sessions := newStubSessionRepository()
		service := newService(newStubUserRepository(), sessions, newStubResetTokenRepository())

		require.NoError(t, service.Logout(context.Background(), "never-issued"))
		assert.Empty(t, sessions.revokedIDs)
	})
}

/*
TestService_PasswordReset covers the forgot-password round trip.
*/
func TestService_PasswordReset(t *testing.T) {
	t.Run("request_for_unknown_email_stays_silent", func(t *testing.T) {
		resets := newStubResetTokenRepository()
		service := newService(newStubUserRepository(), newStubSessionRepository(), resets)

		token, err := service.RequestPasswordReset(context.Background(), "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Empty(t, resets.tokens)
	})

	t.Run("reset_updates_hash_and_revokes_sessions", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "old password here")
		users := newStubUserRepository(user)
		sessions := newStubSessionRepository()
		resets := newStubResetTokenRepository()

		service := newService(users, sessions, resets)

		token, err := service.RequestPasswordReset(context.Background(), "avery@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		require.NoError(t, service.ResetPassword(context.Background(), token, "brand new password"))

		newHash, ok := users.passwordUpdates[user.ID]
		require.True(t, ok)
		assert.True(t, sec.CheckPasswordHash("brand new password", newHash))

		assert.Equal(t, []string{user.ID}, sessions.revokedAllFor)
		assert.Contains(t, resets.deleted, token)
	})
}

/*
TestService_ChangePassword covers the authenticated credential change.
*/
func TestService_ChangePassword(t *testing.T) {
	t.Run("wrong_current_password_unauthorized", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "current password")
		service := newService(newStubUserRepository(user), newStubSessionRepository(), newStubResetTokenRepository())

		err := service.ChangePassword(context.Background(), user.ID, "not the password", "next password", "")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("success_revokes_other_sessions", func(t *testing.T) {
		user := activeUser(t, "avery@example.com", "current password")
		sessions := newStubSessionRepository()

		current := "current-refresh-token"
		require.NoError(t, sessions.Create(context.Background(), &auth.Session{
			ID:        "s0000000-0000-0000-0000-000000000004",
			UserID:    user.ID,
			TokenHash: sec.HashToken(current),
		}))

		users := newStubUserRepository(user)
		service := newService(users, sessions, newStubResetTokenRepository())

		require.NoError(t, service.ChangePassword(context.Background(), user.ID, "current password", "next password", current))

		newHash := users.passwordUpdates[user.ID]
		assert.True(t, sec.CheckPasswordHash("next password", newHash))
		assert.Equal(t, []string{user.ID + ":s0000000-0000-0000-0000-000000000004"}, sessions.revokedOthers)
	})
}
