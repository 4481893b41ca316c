package sweeper

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// Gateway is the part of the panel client the sweeper drives.
type Gateway interface {
	SuspendServer(ctx context.Context, id string) error
	UnsuspendServer(ctx context.Context, id string) error
	DeleteServer(ctx context.Context, id string, force bool) error
}

// Store persists tracked resources and owner balances.
type Store interface {
	ListTracked(ctx context.Context) ([]models.TrackedResource, error)
	SaveTracked(ctx context.Context, r *models.TrackedResource) error
	DeleteTracked(ctx context.Context, resourceID string) error
	SetAutoRenew(ctx context.Context, resourceID string, enabled bool) error
	SetSuspended(ctx context.Context, resourceID string, suspended bool) error
	RenewWithDebit(ctx context.Context, resourceID, ownerID string, cost int64, expiresAt time.Time) error
	GetBalance(ctx context.Context, userID string) (int64, error)
}

type Notifier interface {
	TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport
}
