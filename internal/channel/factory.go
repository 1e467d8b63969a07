package channel

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RevCBH/lastsignal/internal/config"
	"github.com/RevCBH/lastsignal/internal/logging"
	"github.com/RevCBH/lastsignal/internal/oauth"
)

// Options carries process-level dependencies for building channels.
type Options struct {
	// DataDir holds OAuth token files
	DataDir string

	// Console is where the console channel writes. Defaults to stderr.
	Console io.Writer
}

// Set is every configured channel, built once for the process lifetime.
type Set struct {
	// Checkin are the check-in request channels in priority order. All are
	// reply-capable; channels without reply support answer with nothing.
	Checkin []ReplyChannel

	// Recipients receive the emergency broadcast in configured order.
	Recipients []Recipient

	// TokenSources need background refreshing while the daemon runs.
	TokenSources []*oauth.TokenSource
}

// FromConfig builds all channels from configuration.
func FromConfig(cfg *config.Config, opts Options) (*Set, error) {
	b := &builder{opts: opts, tokens: make(map[string]*oauth.TokenSource)}
	set := &Set{}

	for i, out := range cfg.Checkin.Outputs {
		ch, err := b.build(out, out.Bidirectional)
		if err != nil {
			return nil, fmt.Errorf("checkin.outputs[%d]: %w", i, err)
		}
		set.Checkin = append(set.Checkin, WithReplies(ch))
	}

	for i, out := range cfg.Recipient.LastSignalOutputs {
		ch, err := b.build(out, false)
		if err != nil {
			return nil, fmt.Errorf("recipient.last_signal_outputs[%d]: %w", i, err)
		}
		set.Recipients = append(set.Recipients, Recipient{ID: RecipientID(out), Channel: ch})
	}

	for _, ts := range b.tokens {
		set.TokenSources = append(set.TokenSources, ts)
	}
	return set, nil
}

type builder struct {
	opts   Options
	tokens map[string]*oauth.TokenSource // by WHOOP client id
}

func (b *builder) build(out config.OutputConfig, replies bool) (Channel, error) {
	switch out.Type {
	case config.OutputEmail:
		email := NewEmail(SMTPSettings{
			Host:          out.Config["smtp_host"],
			Port:          parsePort(out.Config["smtp_port"], 587),
			Username:      out.Config["username"],
			Password:      out.Config["password"],
			From:          out.Get("from", ""),
			To:            out.Config["to"],
			SubjectPrefix: out.Get("subject_prefix", config.DefaultSubjectPrefix),
		})
		if !replies {
			return email, nil
		}
		defaultIMAPHost := strings.Replace(out.Config["smtp_host"], "smtp", "imap", 1)
		inbox := NewIMAPMailbox(
			out.Get("imap_host", defaultIMAPHost),
			parsePort(out.Config["imap_port"], 993),
			out.Get("imap_username", out.Config["username"]),
			out.Get("imap_password", out.Config["password"]),
		)
		return NewEmailWithReplies(email, inbox), nil

	case config.OutputFacebookMessenger:
		b.warnNoReplies(out, replies)
		return NewMessenger(out.Config["user_id"], out.Config["access_token"]), nil

	case config.OutputDiscord:
		d, err := NewDiscord(out.Config["bot_token"], out.Config["user_id"])
		if err != nil {
			return nil, err
		}
		if replies {
			return NewDiscordWithReplies(d), nil
		}
		return d, nil

	case config.OutputSlack:
		b.warnNoReplies(out, replies)
		return NewSlack(out.Config["url"]), nil

	case config.OutputWebhook:
		b.warnNoReplies(out, replies)
		return NewWebhook(out.Config["url"]), nil

	case config.OutputConsole:
		b.warnNoReplies(out, replies)
		w := b.opts.Console
		if w == nil {
			w = os.Stderr
		}
		return NewConsoleWriter(w), nil

	case config.OutputWhoop:
		window := DefaultWhoopWindow
		if hours, err := strconv.Atoi(out.Config["max_hours_since_activity"]); err == nil && hours > 0 {
			window = time.Duration(hours) * time.Hour
		}
		return NewWhoop(b.tokenSource(out), window), nil

	default:
		return nil, fmt.Errorf("unknown output type %q", out.Type)
	}
}

func (b *builder) tokenSource(out config.OutputConfig) *oauth.TokenSource {
	clientID := out.Config["client_id"]
	if ts, ok := b.tokens[clientID]; ok {
		return ts
	}
	client := oauth.NewClient(clientID, out.Config["client_secret"], oauth.RedirectURL(oauth.DefaultCallbackPort))
	ts := oauth.NewTokenSource(client, oauth.NewStore(b.opts.DataDir))
	b.tokens[clientID] = ts
	return ts
}

func (b *builder) warnNoReplies(out config.OutputConfig, replies bool) {
	if replies {
		logging.Component("channel").Warn("output does not support replies, bidirectional ignored", "type", out.Type)
	}
}
