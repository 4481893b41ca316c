package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

const trackedColumns = `resource_id, owner_id, expires_at, suspended, auto_renew, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracked(row rowScanner) (*models.TrackedResource, error) {
	var (
		r       models.TrackedResource
		expires sql.NullTime
	)
	if err := row.Scan(&r.ResourceID, &r.OwnerID, &expires, &r.Suspended, &r.AutoRenew, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		r.ExpiresAt = &t
	}
	return &r, nil
}

// ListTracked returns every tracked resource ordered by id.
func (db *DB) ListTracked(ctx context.Context) ([]models.TrackedResource, error) {
	query := `SELECT ` + trackedColumns + ` FROM tracked_resources ORDER BY resource_id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("couldn't list tracked resources: %w", err)
	}
	defer rows.Close()

	var resources []models.TrackedResource
	for rows.Next() {
		r, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		resources = append(resources, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't list tracked resources: %w", err)
	}

	return resources, nil
}

func (db *DB) GetTracked(ctx context.Context, resourceID string) (*models.TrackedResource, error) {
	query := `SELECT ` + trackedColumns + ` FROM tracked_resources WHERE resource_id = $1`

	r, err := scanTracked(db.conn.QueryRowContext(ctx, query, resourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return r, nil
}

// SaveTracked writes the whole record in one statement, inserting it if needed.
func (db *DB) SaveTracked(ctx context.Context, r *models.TrackedResource) error {
	query := `
		INSERT INTO tracked_resources (resource_id, owner_id, expires_at, suspended, auto_renew, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (resource_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			expires_at = EXCLUDED.expires_at,
			suspended = EXCLUDED.suspended,
			auto_renew = EXCLUDED.auto_renew,
			updated_at = EXCLUDED.updated_at
	`

	now := db.now().UTC()
	_, err := db.conn.ExecContext(ctx, query,
		r.ResourceID,
		r.OwnerID,
		nullTime(r.ExpiresAt),
		r.Suspended,
		r.AutoRenew,
		now,
	)
	if err != nil {
		return fmt.Errorf("couldn't save tracked resource %s: %w", r.ResourceID, err)
	}

	r.UpdatedAt = now
	return nil
}

// DeleteTracked removes a resource's record. Deleting an untracked id is not an error.
func (db *DB) DeleteTracked(ctx context.Context, resourceID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM tracked_resources WHERE resource_id = $1`, resourceID); err != nil {
		return fmt.Errorf("couldn't delete tracked resource %s: %w", resourceID, err)
	}
	return nil
}

func (db *DB) SetAutoRenew(ctx context.Context, resourceID string, enabled bool) error {
	query := `UPDATE tracked_resources SET auto_renew = $2, updated_at = $3 WHERE resource_id = $1`

	result, err := db.conn.ExecContext(ctx, query, resourceID, enabled, db.now().UTC())
	if err != nil {
		return fmt.Errorf("couldn't update auto-renew for %s: %w", resourceID, err)
	}
	return expectOneRow(result)
}

func (db *DB) SetSuspended(ctx context.Context, resourceID string, suspended bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tracked_resources SET suspended = $2, updated_at = $3 WHERE resource_id = $1`,
		resourceID, suspended, db.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("couldn't update suspended flag for %s: %w", resourceID, err)
	}
	return expectOneRow(result)
}

// RenewWithDebit charges the owner and moves the expiry forward in one transaction.
// The suspended flag is left alone; callers clear it with SetSuspended once the
// panel has actually unsuspended the server.
func (db *DB) RenewWithDebit(ctx context.Context, resourceID, ownerID string, cost int64, expiresAt time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("couldn't begin renewal: %w", err)
	}
	defer tx.Rollback()

	if cost > 0 {
		result, err := tx.ExecContext(ctx,
			`UPDATE user_balances SET coins = coins - $2 WHERE user_id = $1 AND coins >= $2`,
			ownerID, cost,
		)
		if err != nil {
			return fmt.Errorf("couldn't debit %s: %w", ownerID, err)
		}
		if err := expectOneRow(result); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInsufficientCoins
			}
			return err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE tracked_resources SET expires_at = $2, updated_at = $3 WHERE resource_id = $1`,
		resourceID, expiresAt.UTC(), db.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("couldn't renew %s: %w", resourceID, err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("couldn't commit renewal of %s: %w", resourceID, err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
