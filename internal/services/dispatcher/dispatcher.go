// Package dispatcher serializes user actions against the shared configuration.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog"
)

var (
	// ErrTerminated is returned when submitting to a dispatcher that has quit.
	ErrTerminated = errors.New("dispatcher terminated")
	// ErrBusy is returned by TrySubmit when an action is already pending.
	ErrBusy = errors.New("dispatcher busy")
)

// State is the dispatcher's position in its run loop.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateTerminated State = "terminated"
)

// ConfigSource provides the configuration snapshot used by one send.
type ConfigSource interface {
	Load() models.TargetConfig
}

// Dialog edits the configuration. Show blocks until the dialog is closed.
type Dialog interface {
	Show(ctx context.Context) error
}

// Notifier receives the outcome of every processed action.
type Notifier interface {
	Notify(n models.Notification)
}

// Service defines the interface for the action dispatcher.
type Service interface {
	Run(ctx context.Context) error
	Submit(ctx context.Context, action models.Action) error
	TrySubmit(action models.Action) error
	State() State
	Done() <-chan struct{}
}

// Impl implements the dispatcher Service interface.
type Impl struct {
	wolSvc   wol.Service
	config   ConfigSource
	dialog   Dialog
	notifier Notifier
	logger   zerolog.Logger

	actions   chan models.Action
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	state State
}

// New creates a new dispatcher sending packets with the default WOL service.
func New(logger zerolog.Logger, config ConfigSource, dialog Dialog, notifier Notifier) *Impl {
	return NewWithServices(logger, wol.New(logger), config, dialog, notifier)
}

// NewWithServices creates a new dispatcher with a custom WOL service (for testing).
func NewWithServices(
	logger zerolog.Logger,
	wolSvc wol.Service,
	config ConfigSource,
	dialog Dialog,
	notifier Notifier,
) *Impl {
	return &Impl{
		wolSvc:   wolSvc,
		config:   config,
		dialog:   dialog,
		notifier: notifier,
		logger:   logger,
		actions:  make(chan models.Action, 1),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
}

// Run processes actions one at a time until Quit is received or ctx is
// cancelled. Cancellation is only observed between actions.
func (s *Impl) Run(ctx context.Context) error {
	if s.State() == StateTerminated {
		return ErrTerminated
	}
	defer s.terminate()

	s.logger.Debug().Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("dispatcher stopped")
			return ctx.Err()
		case action := <-s.actions:
			if action == models.ActionQuit {
				s.logger.Info().Msg("quit requested")
				return nil
			}
			s.process(ctx, action)
		}
	}
}

// Submit enqueues action, blocking while another action is pending.
func (s *Impl) Submit(ctx context.Context, action models.Action) error {
	select {
	case <-s.done:
		return ErrTerminated
	default:
	}

	select {
	case s.actions <- action:
		return nil
	case <-s.done:
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues action or drops it with ErrBusy if the slot is taken.
func (s *Impl) TrySubmit(action models.Action) error {
	select {
	case <-s.done:
		return ErrTerminated
	default:
	}

	select {
	case s.actions <- action:
		return nil
	default:
		s.logger.Debug().Str("action", action.String()).Msg("dispatcher busy, action dropped")
		return ErrBusy
	}
}

// State returns the current loop state.
func (s *Impl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the dispatcher has terminated.
func (s *Impl) Done() <-chan struct{} {
	return s.done
}

func (s *Impl) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Impl) terminate() {
	s.setState(StateTerminated)
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Impl) process(ctx context.Context, action models.Action) {
	s.setState(StateProcessing)
	defer s.setState(StateIdle)

	s.logger.Debug().Str("action", action.String()).Msg("processing action")

	switch action {
	case models.ActionSendPacket:
		s.sendPacket(ctx)
	case models.ActionShowConfig:
		s.showConfig(ctx)
	default:
		s.logger.Warn().Str("action", action.String()).Msg("ignoring unknown action")
	}
}

func (s *Impl) sendPacket(ctx context.Context) {
	cfg := s.config.Load()

	result, err := s.wolSvc.Wake(ctx, cfg)
	if err == nil && result.Error != nil {
		err = result.Error
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("mac", cfg.MAC).
			Str("ip", cfg.IP).
			Msg("failed to send magic packet")
		s.notify(models.Notification{
			Action:  models.ActionSendPacket,
			Message: describeSendError(err),
		})
		return
	}

	s.notify(models.Notification{
		Action:  models.ActionSendPacket,
		Success: true,
		Message: fmt.Sprintf("Magic packet sent to %s (%s)", cfg.MAC, result.Target),
	})
}

func (s *Impl) showConfig(ctx context.Context) {
	if s.dialog == nil {
		s.logger.Warn().Msg("config dialog is not available")
		s.notify(models.Notification{
			Action:  models.ActionShowConfig,
			Message: "Config dialog is not available",
		})
		return
	}

	if err := s.dialog.Show(ctx); err != nil {
		s.logger.Error().Err(err).Msg("config dialog failed")
		s.notify(models.Notification{
			Action:  models.ActionShowConfig,
			Message: fmt.Sprintf("Config dialog failed: %v", err),
		})
		return
	}

	s.logger.Debug().Msg("config dialog closed")
}

func (s *Impl) notify(n models.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func describeSendError(err error) string {
	switch {
	case errors.Is(err, wol.ErrInvalidAddress):
		return "Invalid MAC address, check the configuration"
	case errors.Is(err, wol.ErrTransport):
		return fmt.Sprintf("Could not send magic packet: %v", err)
	default:
		return fmt.Sprintf("Send failed: %v", err)
	}
}
