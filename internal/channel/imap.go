package channel

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Envelope is the subset of a mail header used for reply detection.
type Envelope struct {
	Date    time.Time
	Subject string
	From    string
}

// Mailbox searches an inbox for replies.
type Mailbox interface {
	// Search returns envelopes whose subject contains subject, received on or
	// after the calendar day of since (zero means no date bound).
	Search(ctx context.Context, subject string, since time.Time) ([]Envelope, error)

	// Ping logs in and out.
	Ping(ctx context.Context) error
}

// IMAPMailbox is a Mailbox backed by an IMAP server over TLS.
type IMAPMailbox struct {
	addr     string
	username string
	password string
}

// NewIMAPMailbox creates a mailbox for host:port.
func NewIMAPMailbox(host string, port int, username, password string) *IMAPMailbox {
	return &IMAPMailbox{
		addr:     net.JoinHostPort(host, fmt.Sprint(port)),
		username: username,
		password: password,
	}
}

// session dials, logs in and closes the connection if ctx ends early.
func (m *IMAPMailbox) session(ctx context.Context, fn func(c *client.Client) error) error {
	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: mailTimeout}, m.addr, nil)
	if err != nil {
		return fmt.Errorf("imap connect %s: %w", m.addr, err)
	}
	c.Timeout = mailTimeout
	stop := context.AfterFunc(ctx, func() { c.Terminate() })
	defer stop()
	defer c.Logout()

	if err := c.Login(m.username, m.password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	return fn(c)
}

// Ping implements Mailbox.
func (m *IMAPMailbox) Ping(ctx context.Context) error {
	return m.session(ctx, func(c *client.Client) error {
		return c.Noop()
	})
}

// Search implements Mailbox.
func (m *IMAPMailbox) Search(ctx context.Context, subject string, since time.Time) ([]Envelope, error) {
	var out []Envelope
	err := m.session(ctx, func(c *client.Client) error {
		if _, err := c.Select("INBOX", true); err != nil {
			return fmt.Errorf("select inbox: %w", err)
		}

		criteria := imap.NewSearchCriteria()
		criteria.Header.Add("Subject", subject)
		if !since.IsZero() {
			criteria.Since = since
		}
		seqNums, err := c.Search(criteria)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(seqNums) == 0 {
			return nil
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(seqNums...)
		messages := make(chan *imap.Message, 10)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate}, messages)
		}()

		for msg := range messages {
			if msg.Envelope == nil {
				continue
			}
			env := Envelope{Date: msg.Envelope.Date, Subject: msg.Envelope.Subject}
			if env.Date.IsZero() {
				env.Date = msg.InternalDate
			}
			if len(msg.Envelope.From) > 0 {
				env.From = msg.Envelope.From[0].Address()
			}
			out = append(out, env)
		}
		if err := <-done; err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		return nil
	})
	return out, err
}

// EmailWithReplies is an email channel that treats replies to its own
// notifications as check-ins.
type EmailWithReplies struct {
	*Email
	inbox Mailbox

	mu    sync.Mutex
	floor time.Time // replies at or before this were already consumed
}

// NewEmailWithReplies wraps an SMTP channel with reply polling on inbox.
func NewEmailWithReplies(e *Email, inbox Mailbox) *EmailWithReplies {
	return &EmailWithReplies{Email: e, inbox: inbox}
}

// HealthCheck requires both SMTP and IMAP to work.
func (e *EmailWithReplies) HealthCheck(ctx context.Context) (bool, error) {
	ok, err := e.Email.HealthCheck(ctx)
	if err != nil || !ok {
		return ok, err
	}
	if err := e.inbox.Ping(ctx); err != nil {
		return false, fmt.Errorf("imap: %w", err)
	}
	return true, nil
}

// PollForReplies returns replies newer than both since and the consumed floor.
func (e *EmailWithReplies) PollForReplies(ctx context.Context, since *time.Time) ([]CheckinResponse, error) {
	e.mu.Lock()
	lower := e.floor
	e.mu.Unlock()
	if since != nil && since.After(lower) {
		lower = *since
	}

	replySubject := "RE: " + e.Subject()
	envelopes, err := e.inbox.Search(ctx, replySubject, lower)
	if err != nil {
		return nil, err
	}

	var out []CheckinResponse
	for _, env := range envelopes {
		if !strings.Contains(strings.ToUpper(env.Subject), strings.ToUpper(replySubject)) {
			continue
		}
		if !env.Date.After(lower) {
			continue
		}
		out = append(out, Found(env.Date.UTC(), env.Subject, env.From))
	}
	return out, nil
}

// MarkConsumedUntil raises the consumed floor. It never moves backwards.
func (e *EmailWithReplies) MarkConsumedUntil(ctx context.Context, t time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.After(e.floor) {
		e.floor = t
	}
	return nil
}
