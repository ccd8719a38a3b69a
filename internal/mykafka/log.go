package mykafka

import (
	"context"
	"encoding/json"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// LogPublisher writes events to the request logger. It stands in for the
// producer when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("event_published", "topic", topic, "key", key, "payload", string(data))
	return nil
}

func (LogPublisher) Close() error { return nil }
