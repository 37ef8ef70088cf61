// Copyright (c) 2026 Sentra Labs. All rights reserved.
// Author: platform@sentra-labs.io

/*
Package device (Postgres) implements the fleet storage layer.

# Schema Table Mapping
  - fleet.device: Device master rows, including the parent self-reference.
  - fleet.company: Existence checks for the owning company.
  - users.userdevice: Assignment lookups and cleanup on delete.
*/
package device

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

// conflictSerialMessage is surfaced when the partial unique index on
// (companyid, serialnumber) fires. The constraint, not the service, is the
// authoritative uniqueness check under concurrency.
const conflictSerialMessage = "Serial number is already in use for this company"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the device store.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// deviceSelectColumns is the shared column list for device hydration queries.
func deviceSelectColumns() string {
	return strings.Join([]string{
		schema.FleetDevice.ID, schema.FleetDevice.Name, schema.FleetDevice.SerialNumber,
		schema.FleetDevice.RegNumber, schema.FleetDevice.Type,
		schema.FleetDevice.MaxValue, schema.FleetDevice.MinValue, schema.FleetDevice.Precision,
		schema.FleetDevice.Location, schema.FleetDevice.Manufacturer, schema.FleetDevice.Price,
		schema.FleetDevice.CompanyID, schema.FleetDevice.ParentID,
		schema.FleetDevice.CreatedAt, schema.FleetDevice.UpdatedAt,
	}, ", ")
}

// scanDevice hydrates a device from a row following deviceSelectColumns order.
func scanDevice(row pgx.Row) (*Device, error) {
	device := &Device{}
	var parentID *string

	err := row.Scan(
		&device.ID,
		&device.Name,
		&device.SerialNumber,
		&device.RegNumber,
		&device.Type,
		&device.MaxValue,
		&device.MinValue,
		&device.Precision,
		&device.Location,
		&device.Manufacturer,
		&device.Price,
		&device.CompanyID,
		&parentID,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		device.ParentID = *parentID
	}

	return device, nil
}

/*
FindByID retrieves a non-deleted device row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Device: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL",
		deviceSelectColumns(), schema.FleetDevice.Table,
		schema.FleetDevice.ID, schema.FleetDevice.DeletedAt,
	)

	device, err := scanDevice(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Device")
		}
		return nil, fmt.Errorf("postgres_device_repo_find_by_id_failed: %w", err)
	}

	return device, nil
}

/*
Create persists a new device row.

Parameters:
  - context: context.Context
  - device: *Device

Returns:
  - error: apperr.Conflict (duplicate serial) or execution errors
*/
func (repository *PostgresRepository) Create(context context.Context, device *Device) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		schema.FleetDevice.Table,
		schema.FleetDevice.ID, schema.FleetDevice.Name, schema.FleetDevice.SerialNumber,
		schema.FleetDevice.RegNumber, schema.FleetDevice.Type,
		schema.FleetDevice.MaxValue, schema.FleetDevice.MinValue, schema.FleetDevice.Precision,
		schema.FleetDevice.Location, schema.FleetDevice.Manufacturer, schema.FleetDevice.Price,
		schema.FleetDevice.CompanyID, schema.FleetDevice.ParentID,
		schema.FleetDevice.CreatedAt, schema.FleetDevice.UpdatedAt,
	)

	now := time.Now()
	_, err := repository.pool.Exec(context, query,
		device.ID,
		device.Name,
		device.SerialNumber,
		device.RegNumber,
		device.Type,
		device.MaxValue,
		device.MinValue,
		device.Precision,
		device.Location,
		device.Manufacturer,
		device.Price,
		device.CompanyID,
		nullIfEmpty(device.ParentID),
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictSerialMessage)
	}

	device.CreatedAt = now
	device.UpdatedAt = now

	return nil
}

/*
Update rewrites the mutable fields of a device row.

Parameters:
  - context: context.Context
  - device: *Device

Returns:
  - error: apperr.Conflict, apperr.NotFound, or execution errors
*/
func (repository *PostgresRepository) Update(context context.Context, device *Device) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8,
			%s = $9, %s = $10, %s = $11, %s = $12, %s = $13, %s = $14
		WHERE %s = $1 AND %s IS NULL`,
		schema.FleetDevice.Table,
		schema.FleetDevice.Name, schema.FleetDevice.SerialNumber, schema.FleetDevice.RegNumber,
		schema.FleetDevice.Type, schema.FleetDevice.MaxValue, schema.FleetDevice.MinValue,
		schema.FleetDevice.Precision, schema.FleetDevice.Location, schema.FleetDevice.Manufacturer,
		schema.FleetDevice.Price, schema.FleetDevice.CompanyID, schema.FleetDevice.ParentID,
		schema.FleetDevice.UpdatedAt,
		schema.FleetDevice.ID, schema.FleetDevice.DeletedAt,
	)

	now := time.Now()
	tag, err := repository.pool.Exec(context, query,
		device.ID,
		device.Name,
		device.SerialNumber,
		device.RegNumber,
		device.Type,
		device.MaxValue,
		device.MinValue,
		device.Precision,
		device.Location,
		device.Manufacturer,
		device.Price,
		device.CompanyID,
		nullIfEmpty(device.ParentID),
		now,
	)
	if err != nil {
		return dberr.Wrap(err, conflictSerialMessage)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Device")
	}

	device.UpdatedAt = now

	return nil
}

/*
SoftDelete flags a device as removed and clears its assignment rows.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_device_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	deleteQuery := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL",
		schema.FleetDevice.Table, schema.FleetDevice.DeletedAt,
		schema.FleetDevice.ID, schema.FleetDevice.DeletedAt)

	tag, err := transaction.Exec(context, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("postgres_device_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Device")
	}

	if _, err := transaction.Exec(context, "DELETE FROM users.userdevice WHERE deviceid = $1", id); err != nil {
		return fmt.Errorf("postgres_device_repo_clear_assignments_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_device_repo_commit_failed: %w", err)
	}

	return nil
}

/*
List returns a page of non-deleted devices matching the filter.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []Device: Page of devices, newest first
  - int: Total matching rows
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter ListFilter) ([]Device, int, error) {
	conditions := []string{fmt.Sprintf("%s IS NULL", schema.FleetDevice.DeletedAt)}
	args := []any{}

	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", schema.FleetDevice.CompanyID, len(args)))
	}

	if filter.AssignedUserID != "" {
		args = append(args, filter.AssignedUserID)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM users.userdevice ud WHERE ud.deviceid = %s.%s AND ud.userid = $%d)",
			schema.FleetDevice.Table, schema.FleetDevice.ID, len(args)))
	}

	if len(filter.Types) > 0 {
		typeNames := make([]string, len(filter.Types))
		for i, deviceType := range filter.Types {
			typeNames[i] = string(deviceType)
		}
		args = append(args, typeNames)
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", schema.FleetDevice.Type, len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		placeholder := len(args)
		conditions = append(conditions, fmt.Sprintf("(%s ILIKE $%d OR %s ILIKE $%d OR %s ILIKE $%d)",
			schema.FleetDevice.Name, placeholder,
			schema.FleetDevice.SerialNumber, placeholder,
			schema.FleetDevice.RegNumber, placeholder))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", schema.FleetDevice.Table, where)

	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_device_repo_count_failed: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d`,
		deviceSelectColumns(), schema.FleetDevice.Table, where,
		schema.FleetDevice.CreatedAt,
		len(args)+1, len(args)+2,
	)

	args = append(args, filter.Pagination.Limit, filter.Pagination.Offset())

	rows, err := repository.pool.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_device_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_device_repo_scan_failed: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_device_repo_rows_failed: %w", err)
	}

	return devices, total, nil
}

/*
ActiveChildCount counts the non-deleted children of a device.

Parameters:
  - context: context.Context
  - deviceID: string

Returns:
  - int: Number of live children
  - error: Execution errors
*/
func (repository *PostgresRepository) ActiveChildCount(context context.Context, deviceID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s IS NULL",
		schema.FleetDevice.Table, schema.FleetDevice.ParentID, schema.FleetDevice.DeletedAt)

	var count int
	if err := repository.pool.QueryRow(context, query, deviceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_device_repo_child_count_failed: %w", err)
	}

	return count, nil
}

/*
AncestorIDs walks the parent chain upward from a device.

Description: The recursive walk is depth-bounded so that a pre-existing cycle
in legacy data terminates instead of spinning; cycle rejection itself happens
at the service layer against the returned chain.

Parameters:
  - context: context.Context
  - deviceID: string

Returns:
  - []string: Ancestor device IDs, nearest first
  - error: Execution errors
*/
func (repository *PostgresRepository) AncestorIDs(context context.Context, deviceID string) ([]string, error) {
	const query = `
		WITH RECURSIVE ancestors AS (
			SELECT d.parentid, 1 AS depth
			FROM fleet.device d
			WHERE d.id = $1 AND d.deletedat IS NULL
			UNION ALL
			SELECT d.parentid, a.depth + 1
			FROM fleet.device d
			JOIN ancestors a ON d.id = a.parentid
			WHERE d.deletedat IS NULL AND a.depth < 64
		)
		SELECT parentid FROM ancestors WHERE parentid IS NOT NULL ORDER BY depth ASC`

	rows, err := repository.pool.Query(context, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("postgres_device_repo_ancestors_failed: %w", err)
	}
	defer rows.Close()

	var ancestorIDs []string
	for rows.Next() {
		var ancestorID string
		if err := rows.Scan(&ancestorID); err != nil {
			return nil, fmt.Errorf("postgres_device_repo_ancestor_scan_failed: %w", err)
		}
		ancestorIDs = append(ancestorIDs, ancestorID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_device_repo_ancestor_rows_failed: %w", err)
	}

	return ancestorIDs, nil
}

/*
HasAssignment reports whether a user-device assignment row exists.

Parameters:
  - context: context.Context
  - userID: string
  - deviceID: string

Returns:
  - bool: True when the user is directly assigned to the device
  - error: Execution errors
*/
func (repository *PostgresRepository) HasAssignment(context context.Context, userID, deviceID string) (bool, error) {
	const query = "SELECT EXISTS (SELECT 1 FROM users.userdevice WHERE userid = $1 AND deviceid = $2)"

	var exists bool
	if err := repository.pool.QueryRow(context, query, userID, deviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_device_repo_assignment_failed: %w", err)
	}

	return exists, nil
}

/*
CompanyExists reports whether a non-deleted company with the ID exists.

Parameters:
  - context: context.Context
  - companyID: string

Returns:
  - bool: True when the company is live
  - error: Execution errors
*/
func (repository *PostgresRepository) CompanyExists(context context.Context, companyID string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s IS NULL)",
		schema.FleetCompany.Table, schema.FleetCompany.ID, schema.FleetCompany.DeletedAt)

	var exists bool
	if err := repository.pool.QueryRow(context, query, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_device_repo_company_exists_failed: %w", err)
	}

	return exists, nil
}

// nullIfEmpty maps an empty string to SQL NULL for nullable reference columns.
func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
