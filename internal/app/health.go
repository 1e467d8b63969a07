package app

import (
	"context"

	"github.com/remeh/sizedwaitgroup"

	"github.com/RevCBH/lastsignal/internal/channel"
)

// Channel roles reported by TestAllChannels.
const (
	RoleCheckin   = "checkin"
	RoleRecipient = "recipient"
)

// ChannelHealth is one channel's health check outcome.
type ChannelHealth struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// TestAllChannels health-checks every configured channel concurrently.
// Nothing is sent. Results keep configuration order.
func (a *App) TestAllChannels(ctx context.Context) []ChannelHealth {
	type target struct {
		ch     channel.Channel
		health ChannelHealth
	}
	var targets []target
	for _, ch := range a.channels.Checkin {
		targets = append(targets, target{ch: ch, health: ChannelHealth{Role: RoleCheckin, Name: ch.Name()}})
	}
	for _, r := range a.channels.Recipients {
		targets = append(targets, target{ch: r.Channel, health: ChannelHealth{Role: RoleRecipient, Name: r.Channel.Name(), ID: r.ID}})
	}

	results := make([]ChannelHealth, len(targets))
	swg := sizedwaitgroup.New(4)
	for i, t := range targets {
		swg.Add()
		go func(i int, t target) {
			defer swg.Done()
			h := t.health
			ok, err := t.ch.HealthCheck(ctx)
			h.Healthy = ok && err == nil
			if err != nil {
				h.Error = err.Error()
			}
			results[i] = h
		}(i, t)
	}
	swg.Wait()

	for _, h := range results {
		if h.Healthy {
			a.logger.Info("channel healthy", "role", h.Role, "channel", h.Name)
		} else {
			a.logger.Warn("channel unhealthy", "role", h.Role, "channel", h.Name, "error", h.Error)
		}
	}
	return results
}

// AllHealthy reports whether every result is healthy.
func AllHealthy(results []ChannelHealth) bool {
	for _, h := range results {
		if !h.Healthy {
			return false
		}
	}
	return true
}
