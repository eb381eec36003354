package tray

import (
	"context"
	"errors"
	"sync"

	"fyne.io/systray"
	"github.com/fgeck/magic-packet/internal/models"
	"github.com/fgeck/magic-packet/internal/services/dispatcher"
	"github.com/rs/zerolog"
)

// Systray is the notification-area frontend. Run must be called from the
// main goroutine.
type Systray struct {
	logger zerolog.Logger

	mu      sync.Mutex
	ready   bool
	tooltip string

	setTooltip func(string)
	quitLoop   func()
}

// NewSystray creates the notification-area frontend.
func NewSystray(logger zerolog.Logger) *Systray {
	return &Systray{
		logger:     logger,
		tooltip:    Title,
		setTooltip: systray.SetTooltip,
		quitLoop:   systray.Quit,
	}
}

// Run shows the tray icon and blocks until the tray loop exits.
func (s *Systray) Run(ctx context.Context, sub Submitter) error {
	systray.Run(func() { s.onReady(ctx, sub) }, func() {
		s.logger.Debug().Msg("tray loop exited")
	})
	return nil
}

func (s *Systray) onReady(ctx context.Context, sub Submitter) {
	systray.SetIcon(Icon())
	systray.SetTitle("")
	systray.SetTooltip(Title)

	send := systray.AddMenuItem("Send Packet", "Send a magic packet to the configured target")
	config := systray.AddMenuItem("Config", "Edit the target MAC and IP address")
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Exit "+Title)

	s.mu.Lock()
	s.ready = true
	tooltip := s.tooltip
	s.mu.Unlock()
	s.setTooltip(tooltip)

	go s.pump(ctx, sub, send.ClickedCh, config.ClickedCh, quit.ClickedCh)
}

// pump turns menu clicks into actions until the dispatcher stops.
func (s *Systray) pump(ctx context.Context, sub Submitter, sendCh, configCh, quitCh <-chan struct{}) {
	defer s.quitLoop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case <-sendCh:
			s.offer(sub, models.ActionSendPacket)
		case <-configCh:
			s.offer(sub, models.ActionShowConfig)
		case <-quitCh:
			if err := sub.Submit(ctx, models.ActionQuit); err != nil {
				return
			}
			select {
			case <-sub.Done():
			case <-ctx.Done():
			}
			return
		}
	}
}

// offer drops the click when an action is already pending.
func (s *Systray) offer(sub Submitter, action models.Action) {
	err := sub.TrySubmit(action)
	switch {
	case err == nil:
	case errors.Is(err, dispatcher.ErrBusy):
		s.logger.Info().Str("action", action.String()).Msg("busy, click ignored")
		s.Notify(models.Notification{Action: action, Message: "Busy, try again in a moment"})
	default:
		s.logger.Debug().Err(err).Str("action", action.String()).Msg("action not submitted")
	}
}

// Notify shows the outcome in the tray tooltip.
func (s *Systray) Notify(n models.Notification) {
	tooltip := Title + "\n" + n.Message

	s.mu.Lock()
	s.tooltip = tooltip
	ready := s.ready
	s.mu.Unlock()

	if ready {
		s.setTooltip(tooltip)
	}

	event := s.logger.Info()
	if !n.Success {
		event = s.logger.Warn()
	}
	event.Str("action", n.Action.String()).Msg(n.Message)
}
