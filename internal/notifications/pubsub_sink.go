package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubSink publishes events to the notification topic. Push delivery to
// vendor devices subscribes downstream.
type PubSubSink struct {
	pub publisher
}

// NewPubSubSink wraps a topic publisher.
func NewPubSubSink(p *gcppubsub.Publisher) (*PubSubSink, error) {
	if p == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubSink{pub: &gcpPublisher{Publisher: p}}, nil
}

func (s *PubSubSink) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	attrs := map[string]string{
		"event_id":       event.ID.String(),
		"event_type":     string(event.Type),
		"order_id":       event.OrderID.String(),
		"is_prime_class": strconv.FormatBool(event.IsPrimeClass),
		"occurred_at":    event.OccurredAt.Format(time.RFC3339Nano),
	}
	if event.VendorID != nil {
		attrs["vendor_id"] = event.VendorID.String()
	}

	result := s.pub.Publish(ctx, &gcppubsub.Message{Data: data, Attributes: attrs})
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
