package mykafka

import (
	"context"
	"fmt"
)

const (
	TemplateAccountVerification = "account_verification"
	TemplatePasswordReset       = "reset_password"
)

// EmailRequest asks the mail worker to render Template with Data and send it.
type EmailRequest struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

type publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Mailer struct {
	Publisher publisher
}

func NewMailer(p publisher) *Mailer {
	return &Mailer{Publisher: p}
}

func (m *Mailer) Send(ctx context.Context, req EmailRequest) error {
	if req.To == "" {
		return fmt.Errorf("email request without recipient")
	}
	return m.Publisher.PublishEvent(ctx, TopicEmailEvents, req.To, req)
}
