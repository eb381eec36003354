package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fgeck/magic-packet/internal/services/instance"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:       "trigger {send|config|quit|status}",
	Short:     "Send an action to the running agent",
	Long:      `Ask the running agent to perform an action, as if its tray menu entry had been clicked.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"send", "config", "quit", "status"},
	RunE:      trigger,
}

func trigger(cmd *cobra.Command, args []string) error {
	path := instance.SocketPath()
	req := instance.Request{Command: strings.ToLower(args[0])}

	resp, err := instance.Send(cmd.Context(), path, req, 5*time.Second)
	if err != nil {
		if instance.IsNotRunning(err) {
			return fmt.Errorf("agent is not running")
		}
		return err
	}

	if !resp.OK {
		log.Error().Str("state", resp.State).Msg(resp.Error)
		return fmt.Errorf("%s", resp.Error)
	}

	switch {
	case resp.Message != "":
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	case resp.State != "":
		fmt.Fprintln(cmd.OutOrStdout(), resp.State)
	}
	return nil
}
