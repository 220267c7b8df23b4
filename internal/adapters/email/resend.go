package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender sends as from, e.g. "GymHub <noreply@gym.example>".
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, m Message) (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	}
	if m.Tag != "" {
		req.Tags = []resend.Tag{{Name: "kind", Value: m.Tag}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend %q to %s: %w", m.Subject, m.To, err)
	}
	slog.InfoContext(ctx, "email_event", "event", "email_sent", "message_id", sent.Id, "to", m.To, "tag", m.Tag)
	return sent.Id, nil
}
