package main

import (
	"fmt"
	"os"

	"github.com/fgeck/magic-packet/internal/config"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without sending anything.`,
	Args:  cobra.NoArgs,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	store := config.NewStore(configFile, log.Logger)

	// Check if file exists
	if _, err := os.Stat(store.Path()); os.IsNotExist(err) {
		log.Error().Str("file", store.Path()).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", store.Path())
	}

	// Load configuration
	cfg, err := store.LoadStrict()
	if err != nil {
		log.Error().Err(err).Str("file", store.Path()).Msg("failed to parse config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	addr, _ := wol.ParseHardwareAddress(cfg.MAC)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  File: %s\n", store.Path())
	fmt.Fprintf(out, "  MAC Address: %s (%s)\n", cfg.MAC, addr)
	fmt.Fprintf(out, "  Target: %s port %d\n", cfg.IP, wol.Port)
	fmt.Fprintf(out, "  Packet Size: %d bytes\n", wol.MagicPacketSize)

	return nil
}
