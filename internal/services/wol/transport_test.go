package wol

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenLoopback(t *testing.T) (*net.UDPConn, int) {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func TestUDPTransport_Send(t *testing.T) {
	conn, port := listenLoopback(t)

	transport := NewUDPTransport()
	transport.Port = port

	packet := BuildMagicPacket(HardwareAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})

	target, err := transport.Send(context.Background(), packet, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), target)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)

	assert.Equal(t, MagicPacketSize, n)
	assert.Equal(t, []byte(packet), buf[:n])
}

func TestUDPTransport_EmptyTarget(t *testing.T) {
	transport := NewUDPTransport()

	_, err := transport.Send(context.Background(), BuildMagicPacket(HardwareAddress{}), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestUDPTransport_BindFailure(t *testing.T) {
	transport := &UDPTransport{Port: 9, LocalAddr: "203.0.113.1:0"}

	_, err := transport.Send(context.Background(), BuildMagicPacket(HardwareAddress{}), "127.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}
