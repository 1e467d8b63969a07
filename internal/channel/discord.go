package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// discordHistoryLimit is how many recent DM messages are scanned for replies.
const discordHistoryLimit = 50

// discordAPI is the part of *discordgo.Session used here.
type discordAPI interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// Discord sends direct messages from a bot account over the REST API.
type Discord struct {
	api    discordAPI
	userID string

	mu          sync.Mutex
	dmChannelID string
}

// NewDiscord creates a bot session. No gateway connection is opened.
func NewDiscord(botToken, userID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: 10 * time.Second}
	return &Discord{api: session, userID: userID}, nil
}

func (d *Discord) dmChannel(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dmChannelID != "" {
		return d.dmChannelID, nil
	}
	ch, err := d.api.UserChannelCreate(d.userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open DM channel: %w", err)
	}
	d.dmChannelID = ch.ID
	return ch.ID, nil
}

// Send delivers message as a DM to the configured user.
func (d *Discord) Send(ctx context.Context, message string) (Result, error) {
	channelID, err := d.dmChannel(ctx)
	if err != nil {
		return Failed(err.Error()), nil
	}
	if _, err := d.api.ChannelMessageSend(channelID, message, discordgo.WithContext(ctx)); err != nil {
		return Failed(fmt.Sprintf("discord send: %v", err)), nil
	}
	return Success(), nil
}

// HealthCheck verifies the bot token.
func (d *Discord) HealthCheck(ctx context.Context) (bool, error) {
	user, err := d.api.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("discord health check: %w", err)
	}
	return user != nil && user.Bot, nil
}

// Name returns "discord"
func (d *Discord) Name() string {
	return "discord"
}

// DiscordWithReplies treats DMs from the configured user as check-ins.
type DiscordWithReplies struct {
	*Discord

	mu    sync.Mutex
	floor time.Time
}

// NewDiscordWithReplies adds reply polling to a Discord channel.
func NewDiscordWithReplies(d *Discord) *DiscordWithReplies {
	return &DiscordWithReplies{Discord: d}
}

// PollForReplies scans recent DM history for messages authored by the user.
func (d *DiscordWithReplies) PollForReplies(ctx context.Context, since *time.Time) ([]CheckinResponse, error) {
	d.mu.Lock()
	lower := d.floor
	d.mu.Unlock()
	if since != nil && since.After(lower) {
		lower = *since
	}

	channelID, err := d.dmChannel(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := d.api.ChannelMessages(channelID, discordHistoryLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord history: %w", err)
	}

	var out []CheckinResponse
	for _, m := range messages {
		if m.Author == nil || m.Author.ID != d.userID {
			continue
		}
		if !m.Timestamp.After(lower) {
			continue
		}
		out = append(out, Found(m.Timestamp.UTC(), m.Content, m.Author.Username))
	}
	return out, nil
}

// MarkConsumedUntil raises the consumed floor.
func (d *DiscordWithReplies) MarkConsumedUntil(ctx context.Context, t time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.After(d.floor) {
		d.floor = t
	}
	return nil
}
