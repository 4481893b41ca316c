package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

var testPolicy = Policy{
	Cost:           100,
	Period:         7 * 24 * time.Hour,
	GracePeriod:    24 * time.Hour,
	DeletionPeriod: 72 * time.Hour,
	AutoSuspend:    true,
	AutoDelete:     true,
}

func expiringAt(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	grace := testPolicy.GracePeriod
	deletion := testPolicy.DeletionPeriod

	testCases := []struct {
		name     string
		resource models.TrackedResource
		policy   Policy
		balance  int64
		want     Decision
	}{
		{
			name:     "untracked_expiry",
			resource: models.TrackedResource{ResourceID: "1"},
			policy:   testPolicy,
			want:     Decision{Action: ActionNone},
		},
		{
			name:     "active",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(10 * 24 * time.Hour))},
			policy:   testPolicy,
			want:     Decision{Action: ActionActive},
		},
		{
			name:     "expiring_soon",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(2 * 24 * time.Hour))},
			policy:   testPolicy,
			want:     Decision{Action: ActionExpiringSoon},
		},
		{
			name:     "expiring_exactly_now_is_active",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now)},
			policy:   testPolicy,
			want:     Decision{Action: ActionActive},
		},
		{
			name:     "paid_up_but_suspended_resumes",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(testPolicy.Period)), Suspended: true, AutoRenew: true},
			policy:   testPolicy,
			balance:  500,
			want:     Decision{Action: ActionResume},
		},
		{
			name:     "in_grace_without_auto_renew",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-time.Hour))},
			policy:   testPolicy,
			want:     Decision{Action: ActionGrace},
		},
		{
			name:     "suspend_just_past_grace",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + time.Millisecond)))},
			policy:   testPolicy,
			want:     Decision{Action: ActionSuspend},
		},
		{
			name:     "auto_suspend_disabled",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + time.Hour)))},
			policy:   Policy{GracePeriod: grace, DeletionPeriod: deletion, AutoDelete: true},
			want:     Decision{Action: ActionGrace},
		},
		{
			name:     "suspended_waiting_for_deletion",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + time.Hour))), Suspended: true},
			policy:   testPolicy,
			want:     Decision{Action: ActionSuspended},
		},
		{
			name:     "delete_after_deletion_period",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + deletion + time.Millisecond))), Suspended: true},
			policy:   testPolicy,
			want:     Decision{Action: ActionDelete},
		},
		{
			name:     "auto_delete_disabled",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + deletion + time.Hour))), Suspended: true},
			policy:   Policy{GracePeriod: grace, DeletionPeriod: deletion, AutoSuspend: true},
			want:     Decision{Action: ActionSuspended},
		},
		{
			name:     "renew_in_grace",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-time.Hour)), AutoRenew: true},
			policy:   testPolicy,
			balance:  100,
			want:     Decision{Action: ActionRenew, NewExpiry: now.Add(testPolicy.Period)},
		},
		{
			name:     "renew_beats_suspend",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + time.Hour))), AutoRenew: true},
			policy:   testPolicy,
			balance:  500,
			want:     Decision{Action: ActionRenew, NewExpiry: now.Add(testPolicy.Period)},
		},
		{
			name:     "no_renew_before_expiry",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(time.Hour)), AutoRenew: true},
			policy:   testPolicy,
			balance:  500,
			want:     Decision{Action: ActionExpiringSoon},
		},
		{
			name:     "unpaid_in_grace_disables_auto_renew",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-time.Hour)), AutoRenew: true},
			policy:   testPolicy,
			balance:  99,
			want:     Decision{Action: ActionGrace, DisableAutoRenew: true},
		},
		{
			name:     "unpaid_past_grace_disables_and_suspends",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + time.Hour))), AutoRenew: true},
			policy:   testPolicy,
			balance:  0,
			want:     Decision{Action: ActionSuspend, DisableAutoRenew: true},
		},
		{
			name:     "suspended_past_grace_is_not_auto_renewed",
			resource: models.TrackedResource{ExpiresAt: expiringAt(now.Add(-(grace + deletion + time.Hour))), AutoRenew: true, Suspended: true},
			policy:   testPolicy,
			balance:  1000,
			want:     Decision{Action: ActionDelete},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.resource, now, tc.policy, tc.balance)
			assert.Equal(t, tc.want, got)
		})
	}
}
