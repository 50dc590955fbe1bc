// Package notify is the outbound notification boundary. The core emits
// structured events on every surfaced state transition; rendering them is
// the UI collaborator's job.
package notify

import "log/slog"

// Kind is the event severity.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Event is a single user-facing notification.
type Event struct {
	Kind    Kind
	Message string
}

// Notifier receives events from the core.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to the Notifier interface.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event. Used when no UI collaborator is attached.
var Discard Notifier = Func(func(Event) {})

// Channel is a buffered, non-blocking Notifier. Events are dropped with a
// warning when the consumer falls behind; a stalled UI must never block the
// connection core.
type Channel struct {
	ch     chan Event
	logger *slog.Logger
}

// NewChannel creates a channel notifier with the given buffer size.
func NewChannel(buffer int, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{ch: make(chan Event, buffer), logger: logger}
}

// Notify implements Notifier.
func (c *Channel) Notify(e Event) {
	select {
	case c.ch <- e:
	default:
		c.logger.Warn("dropping notification, consumer is behind",
			"kind", string(e.Kind), "message", e.Message)
	}
}

// Events exposes the stream for the UI consumer.
func (c *Channel) Events() <-chan Event {
	return c.ch
}
