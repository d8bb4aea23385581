// Package server defines the frames passed between clients and the hub and
// shared connection helpers.
package server

import (
	"strings"

	"github.com/Tyrowin/gochat-hub/internal/chat"
)

// InboundMessage is a decoded frame waiting for the hub's event loop, together
// with the client it arrived on.
type InboundMessage struct {
	Sender   *Client
	Envelope chat.Envelope
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
