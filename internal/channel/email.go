package channel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// mailTimeout bounds SMTP and IMAP operations.
const mailTimeout = 30 * time.Second

// SMTPSettings configures outgoing mail.
type SMTPSettings struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	To            string
	SubjectPrefix string
}

// mailClient is the part of *mail.Client used here.
type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// Email sends notifications over SMTP.
type Email struct {
	settings  SMTPSettings
	newClient func() (mailClient, error)
}

// NewEmail creates an SMTP channel. Port 465 uses implicit TLS, anything
// else requires STARTTLS.
func NewEmail(s SMTPSettings) *Email {
	if s.From == "" {
		s.From = s.Username
	}
	e := &Email{settings: s}
	e.newClient = e.dial
	return e
}

func (e *Email) dial() (mailClient, error) {
	opts := []mail.Option{
		mail.WithPort(e.settings.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.settings.Username),
		mail.WithPassword(e.settings.Password),
		mail.WithTimeout(mailTimeout),
	}
	if e.settings.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return mail.NewClient(e.settings.Host, opts...)
}

// Subject is the subject line of outgoing notifications. Replies carry it
// with a "RE: " prefix.
func (e *Email) Subject() string {
	return e.settings.SubjectPrefix + " Notification"
}

// Send mails message to the configured address.
func (e *Email) Send(ctx context.Context, message string) (Result, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.settings.From); err != nil {
		return Failed(fmt.Sprintf("invalid from address: %v", err)), nil
	}
	if err := msg.To(e.settings.To); err != nil {
		return Failed(fmt.Sprintf("invalid to address: %v", err)), nil
	}
	msg.Subject(e.Subject())
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, message)

	client, err := e.newClient()
	if err != nil {
		return Failed(fmt.Sprintf("failed to create transport: %v", err)), nil
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Failed(fmt.Sprintf("failed to send email: %v", err)), nil
	}
	return Success(), nil
}

// HealthCheck connects and authenticates without sending.
func (e *Email) HealthCheck(ctx context.Context) (bool, error) {
	client, err := e.newClient()
	if err != nil {
		return false, fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return false, fmt.Errorf("smtp connect to %s:%d: %w", e.settings.Host, e.settings.Port, err)
	}
	client.Close()
	return true, nil
}

// Name returns "email"
func (e *Email) Name() string {
	return "email"
}

func parsePort(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return port
}
