// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package account handles self-service profile management and session security.

It lets an authenticated operator inspect their own identity record, adjust
profile fields, and audit or revoke the device sessions attached to their
account. Administrative account provisioning lives in the directory package.

# Architecture

  - Entities: SessionInfo (DTO).
  - Domain: This package depends on the auth package for the User entity.
  - Security: Sessions are strictly self-scoped; even platform operators
    cannot touch another account's sessions.
*/
package account

import (
	"context"
	"time"

	"github.com/sentra-labs/sentra/internal/users/auth"
)

// # Domain Entities

// SessionInfo provides a safety-mapped view of an active device session.
// The token hash is carried for current-session detection but never serialized.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"device_name"` // e.g. "Dispatch console, Berlin depot"
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsCurrent  bool      `json:"is_current"` // True if this session issued the current request
	TokenHash  string    `json:"-"`
}

// # Repository Contracts

// AccountRepository defines the persistence contract for self-service profile data.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Hydrated account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateProfile modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	UpdateProfile(context context.Context, user *auth.User) error
}

// SessionRepository defines the visibility and revocation contract for device sessions.
type SessionRepository interface {
	/*
		FindActiveByUserID lists all valid, non-expired sessions for a user.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []SessionInfo: Active devices, newest first, token hashes included
		  - error: Retrieval errors
	*/
	FindActiveByUserID(context context.Context, userID string) ([]SessionInfo, error)

	/*
		Revoke marks a specific session as revoked, scoped to its owner.

		Parameters:
		  - context: context.Context
		  - userID: string (Security constraint: owner validation)
		  - sessionID: string

		Returns:
		  - error: apperr.NotFound if no owned session matched, or revocation failures
	*/
	Revoke(context context.Context, userID, sessionID string) error

	/*
		RevokeOthersByTokenHash revokes all active sessions except the one
		identified by the given refresh token hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - currentTokenHash: string (The whitelist target)

		Returns:
		  - error: Revocation failures
	*/
	RevokeOthersByTokenHash(context context.Context, userID, currentTokenHash string) error
}
