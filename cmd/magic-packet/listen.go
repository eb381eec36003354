package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fgeck/magic-packet/internal/services/monitor"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var listenAddr string

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print magic packets received on this machine",
	Long: `Listen for magic packets and print the hardware address each one targets.
Run it on the machine you want to wake (while it is still up) to check that
broadcasts from the sender reach it. Binding port 9 may require privileges.`,
	Args: cobra.NoArgs,
	RunE: listen,
}

func init() {
	listenCmd.Flags().StringVar(&listenAddr, "addr", net.JoinHostPort("0.0.0.0", strconv.Itoa(wol.Port)), "UDP address to listen on")
}

func listen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	err := monitor.New(log.Logger).Listen(ctx, listenAddr, func(c monitor.Capture) {
		fmt.Fprintf(out, "%s  %s -> %s (%d bytes)\n",
			c.ReceivedAt.Format("15:04:05"), c.From, c.Target, c.Bytes)
	})
	if err != nil {
		log.Error().Err(err).Str("addr", listenAddr).Msg("listen failed")
		return err
	}
	return nil
}
