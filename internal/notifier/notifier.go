package notifier

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// SubscriptionStore supplies the current subscriber list.
type SubscriptionStore interface {
	ListEnabledSubscriptions(ctx context.Context) ([]models.WebhookSubscription, error)
}

// DeliveryRecorder persists delivery outcomes.
type DeliveryRecorder interface {
	LogDelivery(ctx context.Context, d *models.DeliveryLog) error
}

type Sender interface {
	Send(ctx context.Context, url string, payload any) DeliveryResult
}

type DeliveryMetrics interface {
	RecordWebhookDelivery(success bool)
}

type Options struct {
	Username    string
	Concurrency int
	Recorder    DeliveryRecorder
	Metrics     DeliveryMetrics
}

// Notifier fans domain events out to webhook subscriptions.
type Notifier struct {
	store       SubscriptionStore
	sender      Sender
	recorder    DeliveryRecorder
	metrics     DeliveryMetrics
	username    string
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func New(store SubscriptionStore, sender Sender, logger *zap.Logger, opts Options) *Notifier {
	n := &Notifier{
		store:       store,
		sender:      sender,
		recorder:    opts.Recorder,
		metrics:     opts.Metrics,
		username:    opts.Username,
		concurrency: opts.Concurrency,
		logger:      logger,
		now:         time.Now,
	}
	if n.username == "" {
		n.username = "Helium"
	}
	if n.concurrency < 1 {
		n.concurrency = 8
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// TriggerEvent delivers the event to every enabled subscription that accepts it
// and waits for all deliveries to settle. Failures are logged and counted in the
// report; they never reach the caller as errors.
func (n *Notifier) TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport {
	var report models.DispatchReport

	subs, err := n.store.ListEnabledSubscriptions(ctx)
	if err != nil {
		n.logger.Error("failed to load webhook subscriptions",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		return report
	}

	var matched []models.WebhookSubscription
	for i := range subs {
		if subs[i].Accepts(eventType) {
			matched = append(matched, subs[i])
		}
	}
	report.Matched = len(matched)
	if len(matched) == 0 {
		return report
	}

	payload := BuildPayload(n.username, eventType, meta, n.now())

	var delivered, failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)

	for _, sub := range matched {
		sub := sub
		g.Go(func() error {
			if n.deliver(ctx, sub, eventType, payload) {
				delivered.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Delivered = int(delivered.Load())
	report.Failed = int(failed.Load())

	n.logger.Debug("event dispatched",
		zap.String("event_type", string(eventType)),
		zap.Int("matched", report.Matched),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (n *Notifier) deliver(ctx context.Context, sub models.WebhookSubscription, eventType models.EventType, payload Payload) (ok bool) {
	log := n.logger.With(
		zap.String("subscription_id", sub.ID.String()),
		zap.String("event_type", string(eventType)),
	)

	var result DeliveryResult
	defer func() {
		if r := recover(); r != nil {
			result = DeliveryResult{Err: fmt.Errorf("panic during delivery: %v", r)}
			ok = false
		}
		if n.metrics != nil {
			n.metrics.RecordWebhookDelivery(result.Success)
		}
		if !result.Success {
			log.Warn("webhook delivery failed", zap.Int("attempts", result.Attempts), zap.Error(result.Err))
		}
		n.record(ctx, log, sub, eventType, result)
	}()

	result = n.sender.Send(ctx, sub.TargetURL, payload)
	return result.Success
}

func (n *Notifier) record(ctx context.Context, log *zap.Logger, sub models.WebhookSubscription, eventType models.EventType, result DeliveryResult) {
	if n.recorder == nil {
		return
	}
	entry := &models.DeliveryLog{
		SubscriptionID: sub.ID,
		EventType:      string(eventType),
		Attempts:       result.Attempts,
		Success:        result.Success,
	}
	if result.StatusCode != 0 {
		status := result.StatusCode
		entry.StatusCode = &status
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	if err := n.recorder.LogDelivery(ctx, entry); err != nil {
		log.Warn("failed to record webhook delivery", zap.Error(err))
	}
}
