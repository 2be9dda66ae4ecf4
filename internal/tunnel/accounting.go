package tunnel

import "sync/atomic"

// accounting tracks one tunnel's uplink/downlink byte totals per
// spec.md §4.2. TCP/DNS mode accumulate per chunk; Mux mode is folded
// in once, at close, from the engine's own authoritative counters.
type accounting struct {
	uplink   atomic.Uint64
	downlink atomic.Uint64
}

func (a *accounting) addUplink(n int) {
	if n > 0 {
		a.uplink.Add(uint64(n))
	}
}

func (a *accounting) addDownlink(n int) {
	if n > 0 {
		a.downlink.Add(uint64(n))
	}
}

func (a *accounting) addMuxTotals(uplink, downlink uint64) {
	a.uplink.Add(uplink)
	a.downlink.Add(downlink)
}

func (a *accounting) snapshot() (uplink, downlink uint64) {
	return a.uplink.Load(), a.downlink.Load()
}
