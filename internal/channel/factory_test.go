package channel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/lastsignal/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Checkin.Outputs = []config.OutputConfig{
		{Type: config.OutputEmail, Bidirectional: true, Config: map[string]string{
			"to": "me@example.com", "smtp_host": "smtp.example.com", "smtp_port": "587",
			"username": "sender@example.com", "password": "pw",
		}},
		{Type: config.OutputWhoop, Config: map[string]string{"client_id": "cid", "client_secret": "sec"}},
		{Type: config.OutputConsole},
	}
	cfg.Recipient.LastSignalOutputs = []config.OutputConfig{
		{Type: config.OutputEmail, Config: map[string]string{
			"to": "friend@example.com", "smtp_host": "smtp.example.com", "smtp_port": "465",
			"username": "sender@example.com", "password": "pw",
		}},
		{Type: config.OutputDiscord, Config: map[string]string{"bot_token": "tok", "user_id": "99"}},
	}

	var console bytes.Buffer
	set, err := FromConfig(cfg, Options{DataDir: t.TempDir(), Console: &console})
	require.NoError(t, err)

	require.Len(t, set.Checkin, 3)
	assert.IsType(t, &EmailWithReplies{}, set.Checkin[0])
	assert.IsType(t, &Whoop{}, set.Checkin[1])
	assert.Equal(t, "console", set.Checkin[2].Name())

	require.Len(t, set.Recipients, 2)
	assert.Equal(t, "email:friend@example.com", set.Recipients[0].ID)
	assert.IsType(t, &Email{}, set.Recipients[0].Channel)
	assert.Equal(t, "discord:99", set.Recipients[1].ID)
	assert.IsType(t, &Discord{}, set.Recipients[1].Channel)

	assert.Len(t, set.TokenSources, 1)
}

func TestFromConfig_IMAPDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Checkin.Outputs = []config.OutputConfig{
		{Type: config.OutputEmail, Bidirectional: true, Config: map[string]string{
			"to": "me@example.com", "smtp_host": "smtp.gmail.com", "smtp_port": "587",
			"username": "sender@gmail.com", "password": "pw",
		}},
	}

	set, err := FromConfig(cfg, Options{DataDir: t.TempDir()})
	require.NoError(t, err)

	ewr := set.Checkin[0].(*EmailWithReplies)
	inbox := ewr.inbox.(*IMAPMailbox)
	assert.Equal(t, "imap.gmail.com:993", inbox.addr)
	assert.Equal(t, "sender@gmail.com", inbox.username)
}

func TestFromConfig_UnknownType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Checkin.Outputs = []config.OutputConfig{{Type: "pager"}}

	_, err := FromConfig(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkin.outputs[0]")
}
