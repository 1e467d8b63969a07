// Package delivery routes messages through configured channels: ordered
// fallback for check-in requests and broadcast-to-all for the last signal.
package delivery

import "github.com/RevCBH/lastsignal/internal/channel"

// Skip reasons recorded by the orchestrators.
const (
	ReasonAlreadyNotified = "already notified"
	ReasonUnhealthy       = "health check failed"
)

// Attempt is one channel's outcome within a delivery call.
type Attempt struct {
	Channel string
	Result  channel.Result
}
