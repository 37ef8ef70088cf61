// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package directory (Postgres) implements the administrative storage layer.

# Schema Table Mapping
  - users.account: Master identity rows.
  - users.usercompany: Ordered company assignment relation.
  - users.userdevice: Device assignment relation.
  - fleet.device: Read-only lookups for cross-entity invariants.
*/
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/platform/dberr"
	"github.com/sentra-labs/sentra/internal/users/auth"
)

// conflictEmailMessage is surfaced when the unique email constraint fires.
// The database constraint is the authoritative uniqueness check; service-level
// lookups would only be a racy pre-check.
const conflictEmailMessage = "Email address is already registered"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	users *auth.PostgresUserRepository
}

// NewRepository creates a new Postgres implementation of the directory store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool:  pool,
		users: auth.NewUserRepository(pool),
	}
}

/*
FindByID retrieves a fully hydrated, non-deleted account.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *auth.User: Hydrated entity including assignments
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	return repository.users.FindByID(context, id)
}

/*
Create persists an account and its assignment relations in one transaction.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: apperr.Conflict (duplicate email) or execution errors
*/
func (repository *PostgresRepository) Create(context context.Context, user *auth.User) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_directory_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, firstname, lastname, phonenumber, position,
			role, status, primarycompanyid, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	now := time.Now()
	_, err = transaction.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Position,
		user.Role,
		user.Status,
		nullIfEmpty(user.PrimaryCompanyID),
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictEmailMessage)
	}

	if err := insertAssignments(context, transaction, user); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_directory_repo_commit_failed: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

/*
Update rewrites the account row and both assignment relations atomically.

Description: Assignment rows are replaced wholesale; positions are rewritten
from the order of user.CompanyIDs, which the service has already arranged as
"retained first, new grants appended".

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: apperr.Conflict or execution errors
*/
func (repository *PostgresRepository) Update(context context.Context, user *auth.User) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_directory_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const query = `
		UPDATE users.account
		SET firstname = $2, lastname = $3, phonenumber = $4, position = $5,
		    role = $6, status = $7, primarycompanyid = $8, updatedat = $9
		WHERE id = $1 AND deletedat IS NULL`

	now := time.Now()
	tag, err := transaction.Exec(context, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Position,
		user.Role,
		user.Status,
		nullIfEmpty(user.PrimaryCompanyID),
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictEmailMessage)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	if _, err := transaction.Exec(context, "DELETE FROM users.usercompany WHERE userid = $1", user.ID); err != nil {
		return fmt.Errorf("postgres_directory_repo_clear_companies_failed: %w", err)
	}
	if _, err := transaction.Exec(context, "DELETE FROM users.userdevice WHERE userid = $1", user.ID); err != nil {
		return fmt.Errorf("postgres_directory_repo_clear_devices_failed: %w", err)
	}

	if err := insertAssignments(context, transaction, user); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_directory_repo_commit_failed: %w", err)
	}

	user.UpdatedAt = now

	return nil
}

/*
SoftDelete flags an account as logically removed.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE users.account SET deletedat = NOW() WHERE id = $1 AND deletedat IS NULL"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_directory_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
List returns a page of non-deleted accounts matching the filter.

Description: The tenancy scope is applied as a SQL predicate on the
assignment relation; an unscoped filter (SUPER_ADMIN all-companies) adds no
company condition.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []auth.User: Hydrated page, newest first
  - int: Total matching rows
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter ListFilter) ([]auth.User, int, error) {
	conditions := []string{"a.deletedat IS NULL"}
	args := []any{}

	if filter.Scope.CompanyID != "" {
		args = append(args, filter.Scope.CompanyID)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM users.usercompany uc WHERE uc.userid = a.id AND uc.companyid = $%d)", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		placeholder := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(a.email ILIKE $%d OR a.firstname ILIKE $%d OR a.lastname ILIKE $%d)", placeholder, placeholder, placeholder))
	}

	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("a.role = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM users.account a WHERE " + where

	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_directory_repo_count_failed: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT a.id, a.email, a.passwordhash, a.firstname, a.lastname, a.phonenumber, a.position,
		       a.role, a.status, a.primarycompanyid, a.lastloginat, a.createdat, a.updatedat
		FROM users.account a
		WHERE %s
		ORDER BY a.createdat DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, filter.Pagination.Limit, filter.Pagination.Offset())

	rows, err := repository.pool.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_directory_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var user auth.User
		var primaryCompanyID *string

		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.FirstName,
			&user.LastName,
			&user.PhoneNumber,
			&user.Position,
			&user.Role,
			&user.Status,
			&primaryCompanyID,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_directory_repo_scan_failed: %w", err)
		}

		if primaryCompanyID != nil {
			user.PrimaryCompanyID = *primaryCompanyID
		}

		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_directory_repo_rows_failed: %w", err)
	}

	if err := repository.loadAssignments(context, users); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

/*
DeviceCompanies maps live device IDs to their owning company IDs.

Parameters:
  - context: context.Context
  - deviceIDs: []string

Returns:
  - map[string]string: deviceID -> companyID for every existing device
  - error: Execution errors
*/
func (repository *PostgresRepository) DeviceCompanies(context context.Context, deviceIDs []string) (map[string]string, error) {
	const query = `
		SELECT id, companyid
		FROM fleet.device
		WHERE id = ANY($1) AND deletedat IS NULL`

	rows, err := repository.pool.Query(context, query, deviceIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres_directory_repo_device_companies_failed: %w", err)
	}
	defer rows.Close()

	deviceCompanies := make(map[string]string, len(deviceIDs))
	for rows.Next() {
		var deviceID, companyID string
		if err := rows.Scan(&deviceID, &companyID); err != nil {
			return nil, fmt.Errorf("postgres_directory_repo_device_scan_failed: %w", err)
		}
		deviceCompanies[deviceID] = companyID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_directory_repo_device_rows_failed: %w", err)
	}

	return deviceCompanies, nil
}

// # Helpers

// insertAssignments writes the company and device relations for a user.
// Company positions follow the slice order so tenancy fallback stays stable.
func insertAssignments(context context.Context, transaction pgx.Tx, user *auth.User) error {
	const companyQuery = `
		INSERT INTO users.usercompany (userid, companyid, position, createdat)
		VALUES ($1, $2, $3, NOW())`

	for position, companyID := range user.CompanyIDs {
		if _, err := transaction.Exec(context, companyQuery, user.ID, companyID, position); err != nil {
			return dberr.Wrap(err, "Company assignment already exists")
		}
	}

	const deviceQuery = `
		INSERT INTO users.userdevice (userid, deviceid, createdat)
		VALUES ($1, $2, NOW())`

	for _, deviceID := range user.DeviceIDs {
		if _, err := transaction.Exec(context, deviceQuery, user.ID, deviceID); err != nil {
			return dberr.Wrap(err, "Device assignment already exists")
		}
	}

	return nil
}

// loadAssignments batch-hydrates company and device sets for a page of users.
func (repository *PostgresRepository) loadAssignments(context context.Context, users []auth.User) error {
	if len(users) == 0 {
		return nil
	}

	index := make(map[string]*auth.User, len(users))
	ids := make([]string, 0, len(users))
	for i := range users {
		index[users[i].ID] = &users[i]
		ids = append(ids, users[i].ID)
	}

	const companyQuery = `
		SELECT userid, companyid
		FROM users.usercompany
		WHERE userid = ANY($1)
		ORDER BY userid, position ASC`

	companyRows, err := repository.pool.Query(context, companyQuery, ids)
	if err != nil {
		return fmt.Errorf("postgres_directory_repo_load_companies_failed: %w", err)
	}
	defer companyRows.Close()

	for companyRows.Next() {
		var userID, companyID string
		if err := companyRows.Scan(&userID, &companyID); err != nil {
			return fmt.Errorf("postgres_directory_repo_company_scan_failed: %w", err)
		}
		if user, ok := index[userID]; ok {
			user.CompanyIDs = append(user.CompanyIDs, companyID)
		}
	}
	if err := companyRows.Err(); err != nil {
		return fmt.Errorf("postgres_directory_repo_company_rows_failed: %w", err)
	}

	const deviceQuery = `
		SELECT userid, deviceid
		FROM users.userdevice
		WHERE userid = ANY($1)
		ORDER BY userid, createdat ASC`

	deviceRows, err := repository.pool.Query(context, deviceQuery, ids)
	if err != nil {
		return fmt.Errorf("postgres_directory_repo_load_devices_failed: %w", err)
	}
	defer deviceRows.Close()

	for deviceRows.Next() {
		var userID, deviceID string
		if err := deviceRows.Scan(&userID, &deviceID); err != nil {
			return fmt.Errorf("postgres_directory_repo_device_scan_failed: %w", err)
		}
		if user, ok := index[userID]; ok {
			user.DeviceIDs = append(user.DeviceIDs, deviceID)
		}
	}
	if err := deviceRows.Err(); err != nil {
		return fmt.Errorf("postgres_directory_repo_device_rows_failed: %w", err)
	}

	return nil
}

// nullIfEmpty maps the empty string to SQL NULL for nullable columns.
func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
