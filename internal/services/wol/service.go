// Package wol provides Wake-on-LAN operations.
package wol

import (
	"context"
	"time"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Wake-on-LAN operations.
type Service interface {
	Wake(ctx context.Context, cfg models.TargetConfig) (*models.WOLResult, error)
}

// Impl implements the WOL Service interface.
type Impl struct {
	transport Transport
	logger    zerolog.Logger
}

// New creates a new WOL service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		transport: NewUDPTransport(),
		logger:    logger,
	}
}

// NewWithTransport creates a new WOL service with a custom transport (for testing).
func NewWithTransport(logger zerolog.Logger, transport Transport) *Impl {
	return &Impl{
		transport: transport,
		logger:    logger,
	}
}

// Wake parses cfg.MAC, builds a magic packet and sends it to cfg.IP.
// Invalid addresses and transport failures are reported through the
// result's Error field; nothing is retried.
func (s *Impl) Wake(ctx context.Context, cfg models.TargetConfig) (*models.WOLResult, error) {
	result := &models.WOLResult{}
	start := time.Now()

	addr, err := ParseHardwareAddress(cfg.MAC)
	if err != nil {
		result.Error = err
		return result, nil
	}

	packet := BuildMagicPacket(addr)

	s.logger.Info().
		Str("mac", addr.String()).
		Str("ip", cfg.IP).
		Msg("sending WOL packet")

	target, err := s.transport.Send(ctx, packet, cfg.IP)
	result.Target = target
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result, nil //nolint:nilerr // error is stored in result struct
	}

	result.PacketSent = true
	result.Bytes = len(packet)

	s.logger.Info().
		Str("target", target).
		Int("bytes", result.Bytes).
		Dur("duration", result.Duration).
		Msg("WOL packet sent successfully")

	return result, nil
}
