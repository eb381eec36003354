package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fgeck/magic-packet/internal/config"
	"github.com/fgeck/magic-packet/internal/models"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputFormat string
	setMAC       string
	setIP        string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored target",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.NewStore(configFile, log.Logger).Load()
		return writeConfig(cmd.OutOrStdout(), cfg, outputFormat)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the stored target",
	Long:  `Change the stored target. Fields that are not given keep their current value.`,
	Args:  cobra.NoArgs,
	RunE:  setConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.NewStore(configFile, log.Logger).Path())
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&outputFormat, "output", "o", "toml", "output format: toml, yaml or json")
	configSetCmd.Flags().StringVar(&setMAC, "mac", "", "target MAC address")
	configSetCmd.Flags().StringVar(&setIP, "ip", "", "broadcast address or host")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func setConfig(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("mac") && !cmd.Flags().Changed("ip") {
		return fmt.Errorf("nothing to change: pass --mac and/or --ip")
	}

	store := config.NewStore(configFile, log.Logger)
	cfg := store.Load()

	if cmd.Flags().Changed("mac") {
		cfg.MAC = setMAC
	}
	if cmd.Flags().Changed("ip") {
		cfg.IP = setIP
	}

	if err := config.Validate(&cfg); err != nil {
		log.Warn().Err(err).Msg("saved configuration cannot be used to send yet")
	}

	return store.Save(cfg)
}

func writeConfig(w io.Writer, cfg models.TargetConfig, format string) error {
	switch format {
	case "toml", "":
		return toml.NewEncoder(w).Encode(cfg)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(cfg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
