// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sentra-labs/sentra/internal/access"
	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/platform/sec"
	"github.com/sentra-labs/sentra/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for self-service profile and session management.
//
// Every session operation passes through the access guard so that session
// visibility and revocation stay bound to the requesting account, regardless
// of the caller's role.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of the authenticated user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile including company assignments
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of self-service profile fields.
//
// Role, status, and company assignments are administrative concerns and can
// only be changed through the directory package.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

/*
UpdateProfile applies a partial set of changes to the user's own profile.

Description: Fetches the existing user state, overlays the provided fields,
and synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}

	// Apply delta updates
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	// Persist changes
	if err := service.accountRepository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the caller.

Description: Session visibility is strictly self-scoped. The current session
is flagged by comparing stored token hashes against the caller's refresh token.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string (Must equal the caller's own ID)
  - currentRefreshToken: string (Optional raw refresh token of the request)

Returns:
  - []SessionInfo: List of active devices with IsCurrent marked
  - error: apperr.Forbidden or retrieval failures
*/
func (service *Service) ListSessions(context context.Context, caller access.CallerIdentity, userID, currentRefreshToken string) ([]SessionInfo, error) {

	// Sessions are private even across operator roles
	if err := access.CanTouchSession(caller, userID); err != nil {
		return nil, err
	}

	sessions, err := service.sessionRepository.FindActiveByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	// Flag the session that issued this request
	if currentRefreshToken != "" {
		currentHash := sec.HashToken(currentRefreshToken)
		for index := range sessions {
			sessions[index].IsCurrent = sessions[index].TokenHash == currentHash
		}
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific session belonging to the caller.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string (Must equal the caller's own ID)
  - sessionID: string

Returns:
  - error: apperr.Forbidden, apperr.NotFound, or revocation failures
*/
func (service *Service) RevokeSession(context context.Context, caller access.CallerIdentity, userID, sessionID string) error {

	// Sessions are private even across operator roles
	if err := access.CanTouchSession(caller, userID); err != nil {
		return err
	}

	if err := service.sessionRepository.Revoke(context, userID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)

	return nil
}

/*
RevokeOtherSessions terminates all of the caller's sessions except the current one.

Parameters:
  - context: context.Context
  - caller: access.CallerIdentity
  - userID: string (Must equal the caller's own ID)
  - currentRefreshToken: string (Raw refresh token identifying the session to keep)

Returns:
  - error: apperr.Forbidden or revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, caller access.CallerIdentity, userID, currentRefreshToken string) error {

	// Sessions are private even across operator roles
	if err := access.CanTouchSession(caller, userID); err != nil {
		return err
	}

	// Without the cookie there is no way to whitelist the current session
	if currentRefreshToken == "" {
		return apperr.Unauthorized("Missing active session cookie")
	}

	currentHash := sec.HashToken(currentRefreshToken)
	if err := service.sessionRepository.RevokeOthersByTokenHash(context, userID, currentHash); err != nil {
		return fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	service.logger.Info("user_other_sessions_revoked", slog.String("user_id", userID))

	return nil
}
