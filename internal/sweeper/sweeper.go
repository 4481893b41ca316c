package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/database"
	"github.com/Xreatlabs/Helium-sub000/internal/models"
	"github.com/Xreatlabs/Helium-sub000/internal/services"
)

// Summary counts what one sweep did.
type Summary struct {
	Scanned           int           `json:"scanned"`
	Renewed           int           `json:"renewed"`
	Unsuspended       int           `json:"unsuspended"`
	AutoRenewDisabled int           `json:"auto_renew_disabled"`
	Suspended         int           `json:"suspended"`
	Deleted           int           `json:"deleted"`
	ExpiringSoon      int           `json:"expiring_soon"`
	Failed            int           `json:"failed"`
	Duration          time.Duration `json:"duration"`
}

// Sweeper enforces the renewal policy on every tracked resource.
type Sweeper struct {
	store           Store
	gateway         Gateway
	notifier        Notifier
	policy          Policy
	resourceTimeout time.Duration
	metrics         *services.MetricsCollector
	logger          *zap.Logger
	now             func() time.Time
}

type Options struct {
	// ResourceTimeout bounds the work done for a single resource, panel retries included.
	ResourceTimeout time.Duration
	Metrics         *services.MetricsCollector
}

func New(store Store, gateway Gateway, notifier Notifier, policy Policy, logger *zap.Logger, opts Options) *Sweeper {
	s := &Sweeper{
		store:           store,
		gateway:         gateway,
		notifier:        notifier,
		policy:          policy,
		resourceTimeout: opts.ResourceTimeout,
		metrics:         opts.Metrics,
		logger:          logger,
		now:             time.Now,
	}
	if s.resourceTimeout <= 0 {
		s.resourceTimeout = 2 * time.Minute
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// RunOnce performs one sweep. Resources are processed one at a time; a failure
// on one resource is logged and counted without stopping the others. Only a
// failure to list the tracked resources aborts the sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (Summary, error) {
	start := s.now()
	var summary Summary

	resources, err := s.store.ListTracked(ctx)
	if err != nil {
		s.logger.Error("sweep aborted: couldn't list tracked resources", zap.Error(err))
		return summary, fmt.Errorf("couldn't list tracked resources: %w", err)
	}

	for _, r := range resources {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Scanned++

		if err := s.processResource(ctx, r, &summary); err != nil {
			summary.Failed++
			s.metrics.RecordSweepAction("failed")
			s.logger.Error("sweep failed for resource",
				zap.String("resource_id", r.ResourceID),
				zap.String("owner_id", r.OwnerID),
				zap.Error(err),
			)
		}
	}

	summary.Duration = s.now().Sub(start)
	s.metrics.RecordSweepDuration(summary.Duration)
	s.logger.Info("sweep completed",
		zap.Int("scanned", summary.Scanned),
		zap.Int("renewed", summary.Renewed),
		zap.Int("unsuspended", summary.Unsuspended),
		zap.Int("auto_renew_disabled", summary.AutoRenewDisabled),
		zap.Int("suspended", summary.Suspended),
		zap.Int("deleted", summary.Deleted),
		zap.Int("expiring_soon", summary.ExpiringSoon),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *Sweeper) processResource(ctx context.Context, r models.TrackedResource, summary *Summary) error {
	ctx, cancel := context.WithTimeout(ctx, s.resourceTimeout)
	defer cancel()

	now := s.now()
	var balance int64
	if RenewalDue(r, now, s.policy) {
		var err error
		if balance, err = s.store.GetBalance(ctx, r.OwnerID); err != nil {
			return fmt.Errorf("couldn't read balance: %w", err)
		}
	}

	decision := Classify(r, now, s.policy, balance)

	if decision.Action == ActionRenew {
		err := s.renew(ctx, r, decision.NewExpiry)
		if err == nil {
			summary.Renewed++
			if !r.Suspended {
				return nil
			}
			// a failed unsuspend leaves the record suspended and the next sweep resumes it
			if err := s.resume(ctx, r); err != nil {
				return fmt.Errorf("renewed but %w", err)
			}
			summary.Unsuspended++
			return nil
		}
		if !errors.Is(err, database.ErrInsufficientCoins) {
			return err
		}
		// balance changed since it was read; classify as unpaid
		decision = Classify(r, now, s.policy, -1)
	}

	if decision.DisableAutoRenew {
		if err := s.disableAutoRenew(ctx, &r); err != nil {
			return err
		}
		summary.AutoRenewDisabled++
	}

	switch decision.Action {
	case ActionDelete:
		if err := s.delete(ctx, r); err != nil {
			return err
		}
		summary.Deleted++
	case ActionSuspend:
		if err := s.suspend(ctx, &r); err != nil {
			return err
		}
		summary.Suspended++
	case ActionResume:
		if err := s.resume(ctx, r); err != nil {
			return err
		}
		summary.Unsuspended++
	case ActionExpiringSoon:
		summary.ExpiringSoon++
		s.metrics.RecordSweepAction(string(ActionExpiringSoon))
	}
	return nil
}

func (s *Sweeper) renew(ctx context.Context, r models.TrackedResource, expiresAt time.Time) error {
	if err := s.store.RenewWithDebit(ctx, r.ResourceID, r.OwnerID, s.policy.Cost, expiresAt); err != nil {
		return fmt.Errorf("couldn't renew: %w", err)
	}
	s.metrics.RecordSweepAction(string(ActionRenew))

	cost := s.policy.Cost
	s.notifier.TriggerEvent(ctx, models.EventResourceRenewed, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
		Coins:      &cost,
		Fields: []models.EventField{
			{Name: "Renewed Until", Value: expiresAt.UTC().Format(time.RFC1123), Inline: false},
			{Name: "Automatic", Value: "yes", Inline: true},
		},
	})
	return nil
}

// resume unsuspends a paid-up resource on the panel, then clears its suspended
// flag. The flag is only cleared once the panel call succeeds.
func (s *Sweeper) resume(ctx context.Context, r models.TrackedResource) error {
	if err := s.gateway.UnsuspendServer(ctx, r.ResourceID); err != nil {
		return fmt.Errorf("couldn't unsuspend: %w", err)
	}
	if err := s.store.SetSuspended(ctx, r.ResourceID, false); err != nil {
		return fmt.Errorf("unsuspended but couldn't persist state: %w", err)
	}
	s.metrics.RecordSweepAction(string(ActionResume))

	s.notifier.TriggerEvent(ctx, models.EventResourceUnsuspended, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
	})
	return nil
}

func (s *Sweeper) disableAutoRenew(ctx context.Context, r *models.TrackedResource) error {
	if err := s.store.SetAutoRenew(ctx, r.ResourceID, false); err != nil {
		return fmt.Errorf("couldn't disable auto-renew: %w", err)
	}
	r.AutoRenew = false
	s.metrics.RecordSweepAction("auto_renew_disabled")

	cost := s.policy.Cost
	s.notifier.TriggerEvent(ctx, models.EventAutoRenewDisabled, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
		Coins:      &cost,
	})
	return nil
}

func (s *Sweeper) suspend(ctx context.Context, r *models.TrackedResource) error {
	if err := s.gateway.SuspendServer(ctx, r.ResourceID); err != nil {
		return fmt.Errorf("couldn't suspend: %w", err)
	}

	r.Suspended = true
	if err := s.store.SaveTracked(ctx, r); err != nil {
		return fmt.Errorf("suspended but couldn't persist state: %w", err)
	}
	s.metrics.RecordSweepAction(string(ActionSuspend))

	s.notifier.TriggerEvent(ctx, models.EventResourceSuspended, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
	})
	return nil
}

func (s *Sweeper) delete(ctx context.Context, r models.TrackedResource) error {
	if err := s.gateway.DeleteServer(ctx, r.ResourceID, false); err != nil && !services.IsNotFound(err) {
		return fmt.Errorf("couldn't delete: %w", err)
	}

	if err := s.store.DeleteTracked(ctx, r.ResourceID); err != nil {
		return fmt.Errorf("deleted but couldn't untrack: %w", err)
	}
	s.metrics.RecordSweepAction(string(ActionDelete))

	s.notifier.TriggerEvent(ctx, models.EventResourceDeleted, models.EventMetadata{
		UserID:     r.OwnerID,
		ResourceID: r.ResourceID,
	})
	return nil
}
