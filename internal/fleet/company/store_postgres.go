// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package company (Postgres) implements the tenant storage layer.

# Schema Table Mapping
  - fleet.company: Tenant master rows.
  - fleet.device: Counted for the deletion precondition.
  - users.usercompany / users.account: Assignment bookkeeping on create/delete.
*/
package company

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-labs/sentra/internal/platform/apperr"
	"github.com/sentra-labs/sentra/internal/platform/database/schema"
	"github.com/sentra-labs/sentra/internal/platform/dberr"
)

// conflictNameMessage is surfaced when the partial unique index on the
// company name fires. The constraint, not the service, is the authoritative
// uniqueness check under concurrency.
const conflictNameMessage = "Company name is already in use"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the company store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
FindByID retrieves a non-deleted company row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Company: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Company, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		schema.FleetCompany.ID, schema.FleetCompany.Name, schema.FleetCompany.Slug,
		schema.FleetCompany.Address, schema.FleetCompany.PinCode, schema.FleetCompany.Status,
		schema.FleetCompany.CreatedAt, schema.FleetCompany.UpdatedAt,
		schema.FleetCompany.Table,
		schema.FleetCompany.ID, schema.FleetCompany.DeletedAt,
	)

	company := &Company{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.Address,
		&company.PinCode,
		&company.Status,
		&company.CreatedAt,
		&company.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Company")
		}
		return nil, fmt.Errorf("postgres_company_repo_find_by_id_failed: %w", err)
	}

	return company, nil
}

/*
Create persists a company and the optional creator assignment atomically.

Parameters:
  - context: context.Context
  - company: *Company
  - assignUserID: string (empty to skip the assignment)
  - makePrimary: bool

Returns:
  - error: apperr.Conflict (duplicate name) or execution errors
*/
func (repository *PostgresRepository) Create(context context.Context, company *Company, assignUserID string, makePrimary bool) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_company_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		schema.FleetCompany.Table,
		schema.FleetCompany.ID, schema.FleetCompany.Name, schema.FleetCompany.Slug,
		schema.FleetCompany.Address, schema.FleetCompany.PinCode, schema.FleetCompany.Status,
		schema.FleetCompany.CreatedAt, schema.FleetCompany.UpdatedAt,
	)

	now := time.Now()
	_, err = transaction.Exec(context, insertQuery,
		company.ID,
		company.Name,
		company.Slug,
		company.Address,
		company.PinCode,
		company.Status,
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictNameMessage)
	}

	if assignUserID != "" {
		// Position continues the user's existing assignment sequence so the
		// tenancy fallback ordering stays intact.
		const assignQuery = `
			INSERT INTO users.usercompany (userid, companyid, position, createdat)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(position) + 1, 0) FROM users.usercompany WHERE userid = $1),
				NOW())`

		if _, err := transaction.Exec(context, assignQuery, assignUserID, company.ID); err != nil {
			return fmt.Errorf("postgres_company_repo_assign_failed: %w", err)
		}

		if makePrimary {
			const primaryQuery = "UPDATE users.account SET primarycompanyid = $2 WHERE id = $1"
			if _, err := transaction.Exec(context, primaryQuery, assignUserID, company.ID); err != nil {
				return fmt.Errorf("postgres_company_repo_primary_failed: %w", err)
			}
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_company_repo_commit_failed: %w", err)
	}

	company.CreatedAt = now
	company.UpdatedAt = now

	return nil
}

/*
Update rewrites the mutable fields of a company row.

Parameters:
  - context: context.Context
  - company: *Company

Returns:
  - error: apperr.Conflict, apperr.NotFound, or execution errors
*/
func (repository *PostgresRepository) Update(context context.Context, company *Company) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
		WHERE %s = $1 AND %s IS NULL`,
		schema.FleetCompany.Table,
		schema.FleetCompany.Name, schema.FleetCompany.Slug, schema.FleetCompany.Address,
		schema.FleetCompany.PinCode, schema.FleetCompany.Status, schema.FleetCompany.UpdatedAt,
		schema.FleetCompany.ID, schema.FleetCompany.DeletedAt,
	)

	now := time.Now()
	tag, err := repository.pool.Exec(context, query,
		company.ID,
		company.Name,
		company.Slug,
		company.Address,
		company.PinCode,
		company.Status,
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictNameMessage)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Company")
	}

	company.UpdatedAt = now

	return nil
}

/*
SoftDelete flags a company as removed and clears assignment bookkeeping.

Description: Assignment rows for the company are removed and any account
whose primary company pointed at it is reset, keeping the "primary is a
member of assigned" invariant intact.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_company_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	deleteQuery := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL",
		schema.FleetCompany.Table, schema.FleetCompany.DeletedAt,
		schema.FleetCompany.ID, schema.FleetCompany.DeletedAt)

	tag, err := transaction.Exec(context, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("postgres_company_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Company")
	}

	if _, err := transaction.Exec(context, "DELETE FROM users.usercompany WHERE companyid = $1", id); err != nil {
		return fmt.Errorf("postgres_company_repo_clear_assignments_failed: %w", err)
	}

	if _, err := transaction.Exec(context, "UPDATE users.account SET primarycompanyid = NULL WHERE primarycompanyid = $1", id); err != nil {
		return fmt.Errorf("postgres_company_repo_clear_primary_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_company_repo_commit_failed: %w", err)
	}

	return nil
}

/*
List returns a page of non-deleted companies matching the filter.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []Company: Page of companies, newest first
  - int: Total matching rows
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter ListFilter) ([]Company, int, error) {
	conditions := []string{fmt.Sprintf("%s IS NULL", schema.FleetCompany.DeletedAt)}
	args := []any{}

	if filter.CompanyIDs != nil {
		args = append(args, filter.CompanyIDs)
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", schema.FleetCompany.ID, len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", schema.FleetCompany.Name, len(args)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", schema.FleetCompany.Table, where)

	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_company_repo_count_failed: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d`,
		schema.FleetCompany.ID, schema.FleetCompany.Name, schema.FleetCompany.Slug,
		schema.FleetCompany.Address, schema.FleetCompany.PinCode, schema.FleetCompany.Status,
		schema.FleetCompany.CreatedAt, schema.FleetCompany.UpdatedAt,
		schema.FleetCompany.Table, where, schema.FleetCompany.CreatedAt,
		len(args)+1, len(args)+2,
	)

	args = append(args, filter.Pagination.Limit, filter.Pagination.Offset())

	rows, err := repository.pool.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_company_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var company Company
		err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.Slug,
			&company.Address,
			&company.PinCode,
			&company.Status,
			&company.CreatedAt,
			&company.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_company_repo_scan_failed: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_company_repo_rows_failed: %w", err)
	}

	return companies, total, nil
}

/*
MemberIDs lists the non-deleted accounts assigned to a company.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - []string: Assigned user IDs
  - error: Execution errors
*/
func (repository *PostgresRepository) MemberIDs(context context.Context, companyID string) ([]string, error) {
	const query = `
		SELECT uc.userid
		FROM users.usercompany uc
		JOIN users.account a ON a.id = uc.userid AND a.deletedat IS NULL
		WHERE uc.companyid = $1`

	rows, err := repository.pool.Query(context, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("postgres_company_repo_members_failed: %w", err)
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("postgres_company_repo_member_scan_failed: %w", err)
		}
		memberIDs = append(memberIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_company_repo_member_rows_failed: %w", err)
	}

	return memberIDs, nil
}

/*
Stats gathers the live counts the deletion precondition evaluates.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - DeletionStats: Device count, user count, and sole user when applicable
  - error: Execution errors
*/
func (repository *PostgresRepository) Stats(context context.Context, companyID string) (DeletionStats, error) {
	var stats DeletionStats

	const deviceQuery = "SELECT COUNT(*) FROM fleet.device WHERE companyid = $1 AND deletedat IS NULL"
	if err := repository.pool.QueryRow(context, deviceQuery, companyID).Scan(&stats.ActiveDevices); err != nil {
		return stats, fmt.Errorf("postgres_company_repo_device_count_failed: %w", err)
	}

	memberIDs, err := repository.MemberIDs(context, companyID)
	if err != nil {
		return stats, err
	}

	stats.ActiveUsers = len(memberIDs)
	if stats.ActiveUsers == 1 {
		stats.SoleUserID = memberIDs[0]
	}

	return stats, nil
}
