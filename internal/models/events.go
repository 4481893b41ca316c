package models

type EventType string

const (
	EventResourceCreated     EventType = "resource.created"
	EventResourceDeleted     EventType = "resource.deleted"
	EventResourceSuspended   EventType = "resource.suspended"
	EventResourceUnsuspended EventType = "resource.unsuspended"
	EventResourceRenewed     EventType = "resource.renewed"
	EventAutoRenewDisabled   EventType = "autorenew.disabled"
	EventCoinsAdded          EventType = "coins.added"
	EventCoinsRemoved        EventType = "coins.removed"

	// EventWildcard subscribes to every event type.
	EventWildcard EventType = "*"
)

// KnownEventTypes lists the event types a subscription may name
var KnownEventTypes = []EventType{
	EventResourceCreated,
	EventResourceDeleted,
	EventResourceSuspended,
	EventResourceUnsuspended,
	EventResourceRenewed,
	EventAutoRenewDisabled,
	EventCoinsAdded,
	EventCoinsRemoved,
	EventWildcard,
}

// IsKnownEventType reports whether s names a known event type or the wildcard.
func IsKnownEventType(s string) bool {
	for _, t := range KnownEventTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// EventField is a caller supplied name/value pair appended to a notification
type EventField struct {
	Name   string
	Value  string
	Inline bool
}

// EventMetadata carries the optional details of a domain event.
// Zero values are treated as absent.
type EventMetadata struct {
	UserID       string
	Username     string
	ResourceID   string
	ResourceName string
	Coins        *int64
	RAM          *int64
	Disk         *int64
	CPU          *int64
	Fields       []EventField
}

// DispatchReport summarises a best-effort event dispatch. It carries no error:
// delivery failures never propagate to the operation that triggered the event.
type DispatchReport struct {
	Matched   int
	Delivered int
	Failed    int
}
