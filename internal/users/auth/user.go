// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for
authentication, credential recovery, and session lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies beyond the access core and encapsulate all business rules related
to user identity. The directory and account packages reuse the User entity
rather than defining their own.
*/
package auth

import (
	"time"

	"github.com/sentra-labs/sentra/internal/access"
)

// # Domain Entities

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	// StatusAdded is the initial state of a freshly provisioned account.
	StatusAdded UserStatus = "ADDED"

	// StatusValidated accounts have completed their first successful login.
	StatusValidated UserStatus = "VALIDATED"

	// StatusSuspended accounts exist but are barred from logging in.
	// Suspension also revokes every live session at the moment it is applied.
	StatusSuspended UserStatus = "SUSPENDED"
)

// Valid reports whether the status is a known value.
func (s UserStatus) Valid() bool {
	return s == StatusAdded || s == StatusValidated || s == StatusSuspended
}

// User represents an operator account on the Sentra platform.
//
// # Invariants
//
// CompanyIDs preserves assignment order; tenancy resolution depends on the
// first element being the earliest surviving assignment. PrimaryCompanyID,
// when set, is always a member of CompanyIDs. A VIEWER always has at least
// one entry in DeviceIDs.
type User struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	PasswordHash     string      `json:"-"` // Explicitly omitted from JSON for security.
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	PhoneNumber      string      `json:"phone_number,omitempty"`
	Position         string      `json:"position,omitempty"` // Free-text job title, not used in decisions.
	Role             access.Role `json:"role"`
	Status           UserStatus  `json:"status"`
	CompanyIDs       []string    `json:"company_ids"`
	PrimaryCompanyID string      `json:"primary_company_id,omitempty"`
	DeviceIDs        []string    `json:"device_ids,omitempty"`
	LastLoginAt      *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Caller projects the account into the identity the access core evaluates.
func (u *User) Caller() access.CallerIdentity {
	return access.CallerIdentity{
		ID:               u.ID,
		Role:             u.Role,
		CompanyIDs:       u.CompanyIDs,
		PrimaryCompanyID: u.PrimaryCompanyID,
	}
}

// Session represents an active refresh-token session.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"` // Hashed value of the refresh token. Omitted for security.
	DeviceName string    `json:"device_name"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsRevoked  bool      `json:"is_revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
