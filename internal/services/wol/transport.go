package wol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
)

// ErrTransport is returned when the datagram could not be handed to the network stack.
var ErrTransport = errors.New("transport error")

// Transport delivers a built magic packet to a target host.
type Transport interface {
	Send(ctx context.Context, packet MagicPacket, targetIP string) (string, error)
}

// UDPTransport sends each packet from a fresh broadcast-enabled UDP socket.
type UDPTransport struct {
	// Port overrides the destination port. Zero means Port (9).
	Port int
	// LocalAddr is the address the sending socket binds to.
	LocalAddr string
}

// NewUDPTransport creates a transport sending to port 9 from 0.0.0.0:0.
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{Port: Port, LocalAddr: "0.0.0.0:0"}
}

// Send writes packet as a single datagram to targetIP and returns the
// resolved destination. Delivery is not confirmed.
func (t *UDPTransport) Send(ctx context.Context, packet MagicPacket, targetIP string) (string, error) {
	port := t.Port
	if port == 0 {
		port = Port
	}
	local := t.LocalAddr
	if local == "" {
		local = "0.0.0.0:0"
	}

	if strings.TrimSpace(targetIP) == "" {
		return "", fmt.Errorf("%w: no target host configured", ErrTransport)
	}

	dest := net.JoinHostPort(targetIP, strconv.Itoa(port))
	raddr, err := net.ResolveUDPAddr("udp4", dest)
	if err != nil {
		return dest, fmt.Errorf("%w: resolving %s: %v", ErrTransport, dest, err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", local)
	if err != nil {
		return raddr.String(), fmt.Errorf("%w: opening socket: %v", ErrTransport, err)
	}
	defer func() { _ = conn.Close() }()

	n, err := conn.WriteTo(packet, raddr)
	if err != nil {
		return raddr.String(), fmt.Errorf("%w: sending to %s: %v", ErrTransport, raddr, err)
	}
	if n != len(packet) {
		return raddr.String(), fmt.Errorf("%w: short write to %s: %d of %d bytes", ErrTransport, raddr, n, len(packet))
	}

	return raddr.String(), nil
}

func enableBroadcast(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = setBroadcast(fd)
	}); err != nil {
		return err
	}
	if sockErr != nil {
		return fmt.Errorf("enabling broadcast: %w", sockErr)
	}
	return nil
}
