package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fgeck/magic-packet/internal/config"
	"github.com/fgeck/magic-packet/internal/models"
	"github.com/fgeck/magic-packet/internal/services/dialog"
	"github.com/fgeck/magic-packet/internal/services/dispatcher"
	"github.com/fgeck/magic-packet/internal/services/instance"
	"github.com/fgeck/magic-packet/internal/services/tray"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	probeTimeout  = 200 * time.Millisecond
	acquireTries  = 2
	submitTimeout = 2 * time.Second
)

var (
	headless  bool
	editorCmd string
)

func runAgent(cmd *cobra.Command, args []string) error {
	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Only one agent per user.
	socketPath := instance.SocketPath()
	listener, err := instance.Acquire(ctx, socketPath, probeTimeout, acquireTries)
	switch {
	case errors.Is(err, instance.ErrAlreadyRunning):
		log.Info().Str("socket", socketPath).Msg("another instance is already running")
		return nil
	case err != nil:
		log.Warn().Err(err).Msg("single-instance check unavailable, continuing")
		listener = nil
	}

	store := config.NewStore(configFile, log.Logger)

	var frontend tray.Frontend
	var dlg dispatcher.Dialog
	if headless {
		console := tray.NewConsole(log.Logger, os.Stdin, os.Stdout, store)
		frontend = console
		dlg = console
	} else {
		frontend = tray.NewSystray(log.Logger)
		dlg = dialog.NewEditor(log.Logger, store, editorCmd)
	}

	d := dispatcher.New(log.Logger, store, dlg, frontend)

	if listener != nil {
		go func() {
			if err := instance.Serve(ctx, listener, agentHandler(d)); err != nil {
				log.Error().Err(err).Msg("control socket stopped")
			}
		}()
	}

	log.Info().
		Str("config", store.Path()).
		Bool("headless", headless).
		Msg("agent started")

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	if err := frontend.Run(ctx, d); err != nil {
		log.Error().Err(err).Msg("frontend failed")
	}
	cancel()

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("agent stopped")
	return nil
}

// agentHandler forwards control socket requests to the dispatcher.
func agentHandler(d dispatcher.Service) instance.Handler {
	return instance.HandlerFunc(func(ctx context.Context, req instance.Request) instance.Response {
		if req.Command == instance.CommandStatus {
			return instance.Response{OK: true, State: string(d.State())}
		}

		action, err := models.ParseAction(req.Command)
		if err != nil {
			return instance.Response{Error: err.Error()}
		}

		submitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
		defer cancel()

		if err := d.Submit(submitCtx, action); err != nil {
			return instance.Response{State: string(d.State()), Error: fmt.Sprintf("submit %s: %v", action, err)}
		}

		log.Debug().Str("action", action.String()).Msg("action received over control socket")
		return instance.Response{OK: true, State: string(d.State()), Message: fmt.Sprintf("%s queued", action)}
	})
}
