package main

import (
	"fmt"

	"github.com/fgeck/magic-packet/internal/config"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	sendMAC string
	sendIP  string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one magic packet and exit",
	Long: `Send one magic packet to the configured target without starting the agent.
--mac and --ip override the stored values for this invocation only.`,
	Args: cobra.NoArgs,
	RunE: sendPacket,
}

func init() {
	sendCmd.Flags().StringVar(&sendMAC, "mac", "", "target MAC address (overrides config)")
	sendCmd.Flags().StringVar(&sendIP, "ip", "", "broadcast address or host (overrides config)")
}

func sendPacket(cmd *cobra.Command, args []string) error {
	store := config.NewStore(configFile, log.Logger)
	cfg := store.Load()

	if sendMAC != "" {
		cfg.MAC = sendMAC
	}
	if sendIP != "" {
		cfg.IP = sendIP
	}

	result, err := wol.New(log.Logger).Wake(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if result.Error != nil {
		log.Error().Err(result.Error).Str("mac", cfg.MAC).Str("ip", cfg.IP).Msg("failed to send magic packet")
		return result.Error
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Magic packet sent to %s via %s (%d bytes)\n", cfg.MAC, result.Target, result.Bytes)
	return nil
}
