package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	timeout   time.Duration
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
		timeout:   10 * time.Second,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Email) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(s.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

// buildMessage leaves header encoding to go-mail. Subjects can carry
// user-entered text (ride cities), so line breaks are flattened first.
func (s *SMTPSender) buildMessage(msg *Email) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(HeaderValue(s.fromName), s.fromEmail); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(HeaderValue(msg.Subject))
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

// HeaderValue collapses CR, LF and any run of whitespace into single spaces.
func HeaderValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
