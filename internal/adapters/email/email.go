// Package email delivers account notifications through Resend, or logs
// them when no API key is configured.
package email

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoRecipient = errors.New("email has no recipient")
	ErrNoSubject   = errors.New("email has no subject")
)

// Message is one outgoing email. HTML is required; Text is the optional
// plain-text alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tag     string // provider-side grouping such as "welcome"; letters, digits, _ and - only
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// Sender delivers a message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// New returns a Resend sender when apiKey is set and a LogSender otherwise.
func New(apiKey, from string) Sender {
	if apiKey == "" {
		return &LogSender{}
	}
	return NewResendSender(apiKey, from)
}
