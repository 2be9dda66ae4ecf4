package muxengine

import "sync/atomic"

// engineStats holds the engine's own framed-traffic counters. The tunnel
// dispatcher reads these at close time rather than tracking Mux bytes
// itself, since the engine is authoritative for framed accounting
// per spec.md §4.2.
type engineStats struct {
	bytesReceived uint64
	bytesSent     uint64
}

func (s *engineStats) addReceived(n int) {
	atomic.AddUint64(&s.bytesReceived, uint64(n))
}

func (s *engineStats) addSent(n int) {
	atomic.AddUint64(&s.bytesSent, uint64(n))
}

func (s *engineStats) snapshot() (uplink, downlink uint64) {
	return atomic.LoadUint64(&s.bytesReceived), atomic.LoadUint64(&s.bytesSent)
}
