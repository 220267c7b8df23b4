package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// LogSender logs messages instead of delivering them. Sent exposes what
// would have gone out. The zero value is ready to use.
type LogSender struct {
	mu   sync.Mutex
	sent []Message
}

func (s *LogSender) Send(ctx context.Context, m Message) (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sent = append(s.sent, m)
	id := fmt.Sprintf("log-%d", len(s.sent))
	s.mu.Unlock()

	slog.InfoContext(ctx, "email_event", "event", "email_logged", "message_id", id, "to", m.To, "subject", m.Subject, "tag", m.Tag)
	return id, nil
}

// Sent returns a copy of every message recorded so far.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
