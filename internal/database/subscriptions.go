package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

const subscriptionColumns = `id, name, target_url, event_types, enabled, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.WebhookSubscription, error) {
	var s models.WebhookSubscription
	err := row.Scan(&s.ID, &s.Name, &s.TargetURL, pq.Array(&s.EventTypes), &s.Enabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) querySubscriptions(ctx context.Context, query string, args ...any) ([]models.WebhookSubscription, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't list webhook subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.WebhookSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't list webhook subscriptions: %w", err)
	}
	return subs, nil
}

func (db *DB) ListSubscriptions(ctx context.Context) ([]models.WebhookSubscription, error) {
	return db.querySubscriptions(ctx, `SELECT `+subscriptionColumns+` FROM webhook_subscriptions ORDER BY created_at DESC`)
}

// ListEnabledSubscriptions is read on every event; results are never cached.
func (db *DB) ListEnabledSubscriptions(ctx context.Context) ([]models.WebhookSubscription, error) {
	return db.querySubscriptions(ctx, `SELECT `+subscriptionColumns+` FROM webhook_subscriptions WHERE enabled = true ORDER BY created_at`)
}

func (db *DB) GetSubscription(ctx context.Context, id uuid.UUID) (*models.WebhookSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM webhook_subscriptions WHERE id = $1`

	s, err := scanSubscription(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return s, nil
}

func (db *DB) CreateSubscription(ctx context.Context, s *models.WebhookSubscription) error {
	query := `
		INSERT INTO webhook_subscriptions (id, name, target_url, event_types, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`

	s.ID = uuid.New()
	now := db.now().UTC()
	_, err := db.conn.ExecContext(ctx, query, s.ID, s.Name, s.TargetURL, pq.Array(s.EventTypes), s.Enabled, now)
	if err != nil {
		return fmt.Errorf("couldn't create webhook subscription: %w", err)
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (db *DB) UpdateSubscription(ctx context.Context, s *models.WebhookSubscription) error {
	query := `
		UPDATE webhook_subscriptions
		SET name = $2, target_url = $3, event_types = $4, enabled = $5, updated_at = $6
		WHERE id = $1
	`

	now := db.now().UTC()
	result, err := db.conn.ExecContext(ctx, query, s.ID, s.Name, s.TargetURL, pq.Array(s.EventTypes), s.Enabled, now)
	if err != nil {
		return fmt.Errorf("couldn't update webhook subscription: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	s.UpdatedAt = now
	return nil
}

func (db *DB) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("couldn't delete webhook subscription: %w", err)
	}
	return expectOneRow(result)
}

func (db *DB) ToggleSubscription(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE webhook_subscriptions SET enabled = NOT enabled, updated_at = $2 WHERE id = $1`

	result, err := db.conn.ExecContext(ctx, query, id, db.now().UTC())
	if err != nil {
		return fmt.Errorf("couldn't toggle webhook subscription: %w", err)
	}
	return expectOneRow(result)
}
