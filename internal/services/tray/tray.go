// Package tray contains the user-facing frontends that turn gestures into
// dispatcher actions and display the outcome.
package tray

import (
	"context"

	"github.com/fgeck/magic-packet/internal/models"
)

// Title is the name shown for the tray icon.
const Title = "Magic Packet sender"

// Submitter is the dispatcher side a frontend produces actions into.
type Submitter interface {
	Submit(ctx context.Context, action models.Action) error
	TrySubmit(action models.Action) error
	Done() <-chan struct{}
}

// Frontend runs the user surface until the dispatcher terminates or ctx is
// cancelled.
type Frontend interface {
	Run(ctx context.Context, sub Submitter) error
	Notify(n models.Notification)
}
