package email

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrNoRecipient = errors.New("email recipient is required")
	ErrNoSubject   = errors.New("email subject is required")

	ErrInvalidRecipient = errors.New("email recipient contains a line break")
)

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Sender interface {
	Send(ctx context.Context, msg *Email) error
}

func (e *Email) Validate() error {
	if strings.TrimSpace(e.To) == "" {
		return ErrNoRecipient
	}
	if strings.ContainsAny(e.To, "\r\n") {
		return ErrInvalidRecipient
	}
	if _, err := mail.ParseAddress(e.To); err != nil {
		return err
	}
	if strings.TrimSpace(e.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// NopSender drops every message. Used when no email backend is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, msg *Email) error {
	return msg.Validate()
}
