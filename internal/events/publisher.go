package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
)

const defaultPublishTimeout = 10 * time.Second

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no topic is configured.
type NoopPublisher struct {
	logg *logger.Logger
}

func NewNoopPublisher(logg *logger.Logger) NoopPublisher {
	return NoopPublisher{logg: logg}
}

func (p NoopPublisher) Publish(ctx context.Context, event Event) error {
	if p.logg != nil {
		p.logg.Debug(p.logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID,
			"event_type": string(event.Type),
		}), "event publishing disabled; dropping event")
	}
	return nil
}

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	ResumePublish(orderingKey string)
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher sends events to one Pub/Sub topic and waits for the server ack.
type PubSubPublisher struct {
	topic   topicPublisher
	timeout time.Duration
}

// NewPubSubPublisher wraps a topic publisher from pkg/pubsub.
func NewPubSubPublisher(p *gcppubsub.Publisher) (*PubSubPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return &PubSubPublisher{topic: &gcpPublisher{Publisher: p}, timeout: defaultPublishTimeout}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &gcppubsub.Message{
		Data:        body,
		OrderingKey: event.Key,
		Attributes: map[string]string{
			"event_id":    event.ID,
			"event_type":  string(event.Type),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned no result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		// a failed ordered publish pauses its key until resumed
		if event.Key != "" {
			p.topic.ResumePublish(event.Key)
		}
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
	if msg.OrderingKey != "" && !p.Publisher.EnableMessageOrdering {
		msg.OrderingKey = ""
	}
	return p.Publisher.Publish(ctx, msg)
}
