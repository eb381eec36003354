package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "magic-packet",
	Short: "Send Wake-on-LAN magic packets from the system tray",
	Long: `magic-packet keeps an icon in the notification area with three entries:
  - Send Packet: broadcast a Wake-on-LAN magic packet to the configured target
  - Config:      edit the target MAC and IP address
  - Quit

The target is stored in ~/.magic_packet_config.toml. Only one agent runs per
user; starting a second one exits immediately.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	RunE:         runAgent,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ~/.magic_packet_config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")

	rootCmd.Flags().BoolVar(&headless, "headless", false, "use a console prompt instead of the tray icon")
	rootCmd.Flags().StringVar(&editorCmd, "editor", "", "editor used by the Config entry (default $VISUAL, $EDITOR)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(listenCmd)
}

func setupLogging() error {
	var out io.Writer = os.Stderr

	// Set output format
	if !jsonOutput {
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		console.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		out = console
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(out, f)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
