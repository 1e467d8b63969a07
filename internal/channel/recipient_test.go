package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RevCBH/lastsignal/internal/config"
)

func TestRecipientID_Deterministic(t *testing.T) {
	out := config.OutputConfig{Type: config.OutputEmail, Config: map[string]string{"to": "Alice@Example.com", "password": "a"}}
	same := config.OutputConfig{Type: config.OutputEmail, Config: map[string]string{"to": "alice@example.com", "password": "b"}}
	other := config.OutputConfig{Type: config.OutputEmail, Config: map[string]string{"to": "bob@example.com"}}

	assert.Equal(t, "email:alice@example.com", RecipientID(out))
	assert.Equal(t, RecipientID(out), RecipientID(same))
	assert.NotEqual(t, RecipientID(out), RecipientID(other))
}

func TestRecipientID_TypeDistinguishes(t *testing.T) {
	fb := config.OutputConfig{Type: config.OutputFacebookMessenger, Config: map[string]string{"user_id": "42"}}
	dc := config.OutputConfig{Type: config.OutputDiscord, Config: map[string]string{"user_id": "42"}}

	assert.Equal(t, "facebook_messenger:42", RecipientID(fb))
	assert.Equal(t, "discord:42", RecipientID(dc))
}

func TestRecipientID_HashesSecretURLs(t *testing.T) {
	url := "https://hooks.slack.com/services/T000/B000/SECRET"
	id := RecipientID(config.OutputConfig{Type: config.OutputSlack, Config: map[string]string{"url": url}})

	assert.True(t, strings.HasPrefix(id, "slack:"))
	assert.NotContains(t, id, "SECRET")
	assert.Len(t, strings.TrimPrefix(id, "slack:"), 16)
	assert.Equal(t, id, RecipientID(config.OutputConfig{Type: config.OutputSlack, Config: map[string]string{"url": url}}))
}

func TestRecipientID_Console(t *testing.T) {
	assert.Equal(t, "console", RecipientID(config.OutputConfig{Type: config.OutputConsole}))
}
