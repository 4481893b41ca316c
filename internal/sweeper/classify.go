package sweeper

import (
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// ExpiringSoonWindow is how far ahead of expiry a resource counts as expiring soon.
const ExpiringSoonWindow = 3 * 24 * time.Hour

type Action string

const (
	ActionNone         Action = "untracked"
	ActionActive       Action = "active"
	ActionExpiringSoon Action = "expiring_soon"
	ActionGrace        Action = "grace"
	ActionSuspended    Action = "suspended"
	ActionRenew        Action = "renew"
	ActionResume       Action = "resume"
	ActionSuspend      Action = "suspend"
	ActionDelete       Action = "delete"
)

// Policy holds the lifecycle durations and switches a sweep enforces.
type Policy struct {
	Cost           int64
	Period         time.Duration
	GracePeriod    time.Duration
	DeletionPeriod time.Duration
	AutoSuspend    bool
	AutoDelete     bool
}

// Decision is the outcome of classifying one resource.
type Decision struct {
	Action Action
	// DisableAutoRenew is set when a renewal was due but the owner could not pay.
	DisableAutoRenew bool
	// NewExpiry is set for ActionRenew.
	NewExpiry time.Time
}

// RenewalDue reports whether the resource is eligible for an automatic renewal,
// before looking at the owner's balance. A resource past its grace period is
// still eligible as long as it has not been suspended.
func RenewalDue(r models.TrackedResource, now time.Time, p Policy) bool {
	if !r.AutoRenew || r.ExpiresAt == nil {
		return false
	}
	overdue := now.Sub(*r.ExpiresAt)
	return overdue > 0 && (overdue <= p.GracePeriod || !r.Suspended)
}

// Classify decides what a sweep should do with r. balance is only consulted
// when a renewal is due. Renewal is evaluated before suspension and deletion.
func Classify(r models.TrackedResource, now time.Time, p Policy, balance int64) Decision {
	if r.ExpiresAt == nil {
		return Decision{Action: ActionNone}
	}

	var d Decision
	if RenewalDue(r, now, p) {
		if balance >= p.Cost {
			return Decision{Action: ActionRenew, NewExpiry: now.Add(p.Period)}
		}
		d.DisableAutoRenew = true
	}

	overdue := now.Sub(*r.ExpiresAt)
	switch {
	case overdue > p.GracePeriod+p.DeletionPeriod && r.Suspended && p.AutoDelete:
		d.Action = ActionDelete
	case overdue > p.GracePeriod && !r.Suspended && p.AutoSuspend:
		d.Action = ActionSuspend
	case overdue > 0 && r.Suspended:
		d.Action = ActionSuspended
	case overdue > 0:
		d.Action = ActionGrace
	case r.Suspended:
		// paid up but still suspended: a renewal committed and the panel unsuspend failed
		d.Action = ActionResume
	case overdue < 0 && -overdue < ExpiringSoonWindow:
		d.Action = ActionExpiringSoon
	default:
		d.Action = ActionActive
	}
	return d
}
