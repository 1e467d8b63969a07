package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/RevCBH/lastsignal/internal/channel"
	"github.com/RevCBH/lastsignal/internal/logging"
)

// FallbackReport is the outcome of an ordered-fallback delivery.
type FallbackReport struct {
	// Result is Success or Skipped from the deciding channel, or an
	// aggregate Failed when every channel was exhausted
	Result channel.Result

	// Channel names the deciding channel; empty when exhausted
	Channel string

	// Attempts lists every channel tried, in order
	Attempts []Attempt
}

// Fallback tries channels in order until one delivers. Unhealthy channels
// are skipped. A Failed send moves on to the next channel. A Skipped send is
// a deliberate refusal and ends the walk.
func Fallback(ctx context.Context, channels []channel.Channel, message string) FallbackReport {
	logger := logging.Component("delivery")
	var report FallbackReport

	for _, ch := range channels {
		name := ch.Name()

		healthy, err := ch.HealthCheck(ctx)
		if err != nil || !healthy {
			logger.Warn("channel unhealthy, trying next", "channel", name, "error", err)
			report.Attempts = append(report.Attempts, Attempt{Channel: name, Result: channel.Skipped(ReasonUnhealthy)})
			continue
		}

		result, err := ch.Send(ctx, message)
		if err != nil {
			result = channel.Failed(err.Error())
		}
		report.Attempts = append(report.Attempts, Attempt{Channel: name, Result: result})

		switch result.Status {
		case channel.StatusSuccess:
			logger.Info("message delivered", "channel", name)
			report.Result = result
			report.Channel = name
			return report
		case channel.StatusSkipped:
			logger.Info("channel declined to send", "channel", name, "reason", result.Reason)
			report.Result = result
			report.Channel = name
			return report
		default:
			logger.Warn("send failed, trying next", "channel", name, "reason", result.Reason)
		}
	}

	report.Result = channel.Failed(exhaustedReason(report.Attempts))
	return report
}

func exhaustedReason(attempts []Attempt) string {
	if len(attempts) == 0 {
		return "no channels configured"
	}
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = fmt.Sprintf("%s (%s)", a.Channel, a.Result)
	}
	return "all channels exhausted: " + strings.Join(parts, ", ")
}
