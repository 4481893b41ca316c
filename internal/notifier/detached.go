package notifier

import (
	"context"
	"sync"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

type EventTrigger interface {
	TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport
}

// Detached dispatches events in the background so request paths don't wait on
// webhook retries. The dispatch context survives cancellation of the caller's.
type Detached struct {
	next EventTrigger
	wg   sync.WaitGroup
}

func NewDetached(next EventTrigger) *Detached {
	return &Detached{next: next}
}

// TriggerEvent returns an empty report immediately.
func (d *Detached) TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.next.TriggerEvent(ctx, eventType, meta)
	}()
	return models.DispatchReport{}
}

// Wait blocks until every dispatched event has settled or ctx ends.
func (d *Detached) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
