package channel

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/RevCBH/lastsignal/internal/config"
)

// Recipient is one destination of the emergency broadcast.
type Recipient struct {
	ID      string
	Channel Channel
}

// destinationKeys names the config field that identifies where an output delivers.
var destinationKeys = map[config.OutputType]string{
	config.OutputEmail:             "to",
	config.OutputFacebookMessenger: "user_id",
	config.OutputDiscord:           "user_id",
	config.OutputSlack:             "url",
	config.OutputWebhook:           "url",
	config.OutputWhoop:             "client_id",
}

// hashedDestinations carry secrets in the destination and are hashed.
var hashedDestinations = map[config.OutputType]bool{
	config.OutputSlack:   true,
	config.OutputWebhook: true,
}

// RecipientID derives the deduplication key for an output from its type and
// destination. It is a pure function of configuration.
func RecipientID(out config.OutputConfig) string {
	key, ok := destinationKeys[out.Type]
	if !ok {
		return string(out.Type)
	}

	dest := strings.TrimSpace(out.Config[key])
	if out.Type == config.OutputEmail {
		dest = strings.ToLower(dest)
	}
	if hashedDestinations[out.Type] {
		sum := sha256.Sum256([]byte(dest))
		dest = hex.EncodeToString(sum[:8])
	}
	return string(out.Type) + ":" + dest
}
