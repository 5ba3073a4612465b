package message

import "context"

// Sender delivers encoded frames to live connections. Both methods are
// best-effort: a closed or saturated connection simply does not count.
type Sender interface {
	// SendTo queues frame on one connection and reports whether it was accepted.
	SendTo(ctx context.Context, connID string, frame Frame) bool
	// Broadcast queues frame on every live connection and returns how many accepted it.
	Broadcast(ctx context.Context, frame Frame) int
}
