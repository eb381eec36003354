package models

import "time"

// WOLResult holds the result of a Wake-on-LAN send.
type WOLResult struct {
	PacketSent bool
	Target     string // host:port the datagram was addressed to
	Bytes      int
	Duration   time.Duration
	Error      error
}
