// Package pubsub publishes finalized events to a Google Cloud Pub/Sub
// topic for the downstream notification workers.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"github.com/campuseats/spider/internal/spider"
)

// Publisher wraps a Pub/Sub topic. Each publisher carries a run ID so
// consumers can group one crawl's events.
type Publisher struct {
	topic *pubsub.Topic
	runID string
}

// New creates a Publisher for the provided topic.
func New(topic *pubsub.Topic) *Publisher {
	return &Publisher{
		topic: topic,
		runID: uuid.NewString(),
	}
}

// Publish marshals the event to JSON and publishes it, blocking until the
// server acknowledges.
func (p *Publisher) Publish(ctx context.Context, event spider.NormalizedEvent) (string, error) {
	if p.topic == nil {
		return "", fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id":   p.runID,
			"event_id": event.EventID,
			"platform": string(event.Platform),
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish event: %w", err)
	}
	return id, nil
}
