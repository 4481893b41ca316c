package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// LogDelivery stores the outcome of one webhook delivery
func (db *DB) LogDelivery(ctx context.Context, d *models.DeliveryLog) error {
	query := `
		INSERT INTO webhook_deliveries (id, subscription_id, event_type, attempts, status_code, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = db.now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, query,
		d.ID,
		d.SubscriptionID,
		d.EventType,
		d.Attempts,
		d.StatusCode,
		d.Success,
		d.Error,
		d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("couldn't log webhook delivery: %w", err)
	}
	return nil
}
