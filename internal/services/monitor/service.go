// Package monitor receives and decodes magic packets, for checking that a
// broadcast actually reaches a machine on the segment.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog"
)

// Capture describes one received magic packet.
type Capture struct {
	From       net.Addr
	Target     wol.HardwareAddress
	Bytes      int
	ReceivedAt time.Time
}

// Service defines the interface for the magic packet listener.
type Service interface {
	Listen(ctx context.Context, addr string, handle func(Capture)) error
}

// Impl implements the monitor Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new monitor service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Listen binds addr and calls handle for every valid magic packet until ctx
// is cancelled.
func (s *Impl) Listen(ctx context.Context, addr string, handle func(Capture)) error {
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("listening for magic packets")

	return s.Serve(ctx, conn, handle)
}

// Serve reads from conn until ctx is cancelled. conn is closed on return.
func (s *Impl) Serve(ctx context.Context, conn net.PacketConn, handle func(Capture)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = conn.Close()
	}()

	buf := make([]byte, 1500)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading datagram: %w", err)
		}

		target, err := wol.DecodeMagicPacket(buf[:n])
		if err != nil {
			s.logger.Debug().
				Err(err).
				Str("from", from.String()).
				Int("bytes", n).
				Msg("ignoring datagram")
			continue
		}

		c := Capture{
			From:       from,
			Target:     target,
			Bytes:      n,
			ReceivedAt: time.Now(),
		}

		s.logger.Info().
			Str("from", from.String()).
			Str("mac", target.String()).
			Int("bytes", n).
			Msg("magic packet received")

		if handle != nil {
			handle(c)
		}
	}
}
