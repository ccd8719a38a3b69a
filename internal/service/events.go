package service

import (
	"context"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Mailer interface {
	Send(ctx context.Context, req mykafka.EmailRequest) error
}

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p Publisher, topic string, userID uint, event map[string]any) {
	if p == nil {
		return
	}
	key := strconv.FormatUint(uint64(userID), 10)
	event["userID"] = userID
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", topic, "type", event["type"], "error", err)
	}
}

func sendMail(ctx context.Context, m Mailer, req mykafka.EmailRequest) {
	if m == nil {
		return
	}
	if err := m.Send(ctx, req); err != nil {
		logging.FromContext(ctx).Error("email_request_failed", "template", req.Template, "error", err)
	}
}
