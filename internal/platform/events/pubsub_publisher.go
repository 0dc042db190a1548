package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/jooyeonthemaster/book/internal/services"
)

// PubSubPublisher publishes domain events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	source  string
	marshal func(any) ([]byte, error)
}

var _ services.EventPublisher = (*PubSubPublisher)(nil)

// NewPubSubPublisher constructs a Pub/Sub backed event publisher. Source is attached to every message.
func NewPubSubPublisher(topic *pubsub.Topic, source string) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher: topic is required")
	}
	return &PubSubPublisher{
		topic:   topic,
		source:  strings.TrimSpace(source),
		marshal: json.Marshal,
	}, nil
}

// PublishEvent sends the event payload as JSON and copies the event type and attributes onto the message.
func (p *PubSubPublisher) PublishEvent(ctx context.Context, event services.DomainEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub publisher: not initialised")
	}
	eventType := strings.TrimSpace(event.Type)
	if eventType == "" {
		return "", errors.New("pubsub publisher: event type is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	attrs := make(map[string]string, len(event.Attributes)+2)
	for key, value := range event.Attributes {
		setAttr(attrs, key, value)
	}
	attrs["eventType"] = eventType
	setAttr(attrs, "source", p.source)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return id, nil
}

// Stop flushes pending messages and releases the topic's goroutines.
func (p *PubSubPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key string, value string) {
	key = strings.TrimSpace(key)
	if v := strings.TrimSpace(value); key != "" && v != "" {
		attrs[key] = v
	}
}
