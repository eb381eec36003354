// Package config persists the Wake-on-LAN target configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/spf13/viper"
)

const (
	// FileName is the configuration file created in the user's home directory.
	FileName = ".magic_packet_config.toml"

	envPrefix = "MAGIC_PACKET"
)

// Parser reads a TOML configuration with viper.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("mac")
	_ = v.BindEnv("ip")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.TargetConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a string (useful for testing).
func (p *Parser) LoadReader(content string) (*models.TargetConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.TargetConfig, error) {
	cfg := &models.TargetConfig{}
	if err := p.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.MAC = strings.TrimSpace(cfg.MAC)
	cfg.IP = strings.TrimSpace(cfg.IP)

	return cfg, nil
}

// DefaultPath returns the per-user configuration path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, FileName)
}

// Validate checks that cfg can be used to send a magic packet.
func Validate(cfg *models.TargetConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.MAC == "" {
		return fmt.Errorf("mac is required")
	}
	if _, err := wol.ParseHardwareAddress(cfg.MAC); err != nil {
		return fmt.Errorf("mac: %w", err)
	}

	if cfg.IP == "" {
		return fmt.Errorf("ip is required")
	}

	return nil
}
