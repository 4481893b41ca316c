package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
	"github.com/Xreatlabs/Helium-sub000/internal/sweeper"
)

var (
	ErrNotOwner        = errors.New("server does not belong to this user")
	ErrRenewalDisabled = errors.New("renewals are disabled")
)

// FailedMessage is what users see when a renewal fails for a reason they cannot act on.
const FailedMessage = "Failed to renew server. Please try again later."

type Store interface {
	GetTracked(ctx context.Context, resourceID string) (*models.TrackedResource, error)
	SaveTracked(ctx context.Context, r *models.TrackedResource) error
	DeleteTracked(ctx context.Context, resourceID string) error
	SetAutoRenew(ctx context.Context, resourceID string, enabled bool) error
	SetSuspended(ctx context.Context, resourceID string, suspended bool) error
	RenewWithDebit(ctx context.Context, resourceID, ownerID string, cost int64, expiresAt time.Time) error
}

type Gateway interface {
	UnsuspendServer(ctx context.Context, id string) error
}

type Notifier interface {
	TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport
}

// Status describes a resource's renewal state for its owner.
type Status struct {
	ResourceID string         `json:"resource_id"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	Suspended  bool           `json:"suspended"`
	AutoRenew  bool           `json:"auto_renew"`
	State      sweeper.Action `json:"state"`
	Cost       int64          `json:"cost"`
	Period     string         `json:"period"`
}

// Service handles user-initiated lifecycle changes of tracked resources.
type Service struct {
	store    Store
	gateway  Gateway
	notifier Notifier
	enabled  bool
	policy   sweeper.Policy
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, gateway Gateway, notifier Notifier, enabled bool, policy sweeper.Policy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		enabled:  enabled,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Track starts tracking a newly provisioned resource. Without renewals the
// record carries no expiry.
func (s *Service) Track(ctx context.Context, resourceID, ownerID string) (*models.TrackedResource, error) {
	r := &models.TrackedResource{ResourceID: resourceID, OwnerID: ownerID}
	if s.enabled {
		expires := s.now().Add(s.policy.Period)
		r.ExpiresAt = &expires
	}
	if err := s.store.SaveTracked(ctx, r); err != nil {
		return nil, fmt.Errorf("couldn't track server %s: %w", resourceID, err)
	}
	return r, nil
}

func (s *Service) owned(ctx context.Context, userID, resourceID string) (*models.TrackedResource, error) {
	r, err := s.store.GetTracked(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return r, nil
}

// Renew charges the owner and extends the expiry by one period from the later
// of now and the current expiry. A suspended server is unsuspended, and stays
// flagged suspended until the panel accepts the unsuspend. Renewing a server
// that is paid up but still suspended only retries the unsuspend.
func (s *Service) Renew(ctx context.Context, userID, resourceID string) (*models.TrackedResource, error) {
	if !s.enabled {
		return nil, ErrRenewalDisabled
	}
	r, err := s.owned(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if r.Suspended && r.ExpiresAt != nil && r.ExpiresAt.After(now) {
		if err := s.unsuspend(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	base := now
	if r.ExpiresAt != nil && r.ExpiresAt.After(now) {
		base = *r.ExpiresAt
	}
	expires := base.Add(s.policy.Period)

	if err := s.store.RenewWithDebit(ctx, resourceID, userID, s.policy.Cost, expires); err != nil {
		return nil, err
	}
	r.ExpiresAt = &expires

	cost := s.policy.Cost
	s.notifier.TriggerEvent(ctx, models.EventResourceRenewed, models.EventMetadata{
		UserID:     userID,
		ResourceID: resourceID,
		Coins:      &cost,
		Fields: []models.EventField{
			{Name: "Renewed Until", Value: expires.UTC().Format(time.RFC1123)},
		},
	})

	s.logger.Info("server renewed",
		zap.String("resource_id", resourceID),
		zap.String("user_id", userID),
		zap.Time("expires_at", expires),
	)

	if r.Suspended {
		if err := s.unsuspend(ctx, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (s *Service) unsuspend(ctx context.Context, r *models.TrackedResource) error {
	if err := s.gateway.UnsuspendServer(ctx, r.ResourceID); err != nil {
		s.logger.Error("renewed server could not be unsuspended",
			zap.String("resource_id", r.ResourceID),
			zap.String("user_id", r.OwnerID),
			zap.Error(err),
		)
		return fmt.Errorf("couldn't unsuspend renewed server %s: %w", r.ResourceID, err)
	}
	if err := s.store.SetSuspended(ctx, r.ResourceID, false); err != nil {
		return fmt.Errorf("unsuspended server %s but couldn't persist state: %w", r.ResourceID, err)
	}
	r.Suspended = false

	s.notifier.TriggerEvent(ctx, models.EventResourceUnsuspended, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
	})
	return nil
}

func (s *Service) SetAutoRenew(ctx context.Context, userID, resourceID string, enabled bool) error {
	if !s.enabled && enabled {
		return ErrRenewalDisabled
	}
	if _, err := s.owned(ctx, userID, resourceID); err != nil {
		return err
	}
	return s.store.SetAutoRenew(ctx, resourceID, enabled)
}

func (s *Service) Status(ctx context.Context, userID, resourceID string) (*Status, error) {
	r, err := s.owned(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	// classify without auto-renew so the state shows where the resource is heading
	view := *r
	view.AutoRenew = false
	state := sweeper.Classify(view, s.now(), s.policy, 0).Action

	return &Status{
		ResourceID: r.ResourceID,
		ExpiresAt:  r.ExpiresAt,
		Suspended:  r.Suspended,
		AutoRenew:  r.AutoRenew,
		State:      state,
		Cost:       s.policy.Cost,
		Period:     s.policy.Period.String(),
	}, nil
}

// Untrack forgets a resource after its owner deleted it.
func (s *Service) Untrack(ctx context.Context, userID, resourceID string) error {
	if _, err := s.owned(ctx, userID, resourceID); err != nil {
		return err
	}
	return s.store.DeleteTracked(ctx, resourceID)
}
