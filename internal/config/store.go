package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Store owns the persisted configuration record.
type Store struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewStore creates a store backed by the TOML file at path.
// An empty path selects DefaultPath.
func NewStore(path string, logger zerolog.Logger) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current configuration. It never fails: a missing or
// unreadable file yields an empty configuration.
func (s *Store) Load() models.TargetConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug().Str("file", s.path).Msg("config file not found, using empty configuration")
		} else {
			s.logger.Warn().Err(err).Str("file", s.path).Msg("failed to load config, using empty configuration")
		}
		return emptyWithEnv()
	}

	return *cfg
}

// LoadStrict is like Load but reports read and decode errors.
func (s *Store) LoadStrict() (*models.TargetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *Store) read() (*models.TargetConfig, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return NewParser().LoadFile(s.path)
}

// emptyWithEnv honours MAGIC_PACKET_MAC / MAGIC_PACKET_IP when no file exists.
func emptyWithEnv() models.TargetConfig {
	cfg, err := NewParser().LoadReader("")
	if err != nil {
		return models.TargetConfig{}
	}
	return *cfg
}

// Save writes cfg to the backing file, replacing its contents.
func (s *Store) Save(cfg models.TargetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("mac", cfg.MAC)
	v.Set("ip", cfg.IP)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	s.logger.Info().
		Str("file", s.path).
		Str("mac", cfg.MAC).
		Str("ip", cfg.IP).
		Msg("configuration saved")

	return nil
}
