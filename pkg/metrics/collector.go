// Package metrics collects in-process repeater-core counters: per-transport
// packets in/out, FEC and routing-policy drop counts, and active-stream
// count. Grounded on the teacher's pkg/metrics/collector.go, narrowed to
// the repeater core's own accounting (no peer/bridge/talkgroup HTTP
// metrics) and switched to atomic counters since Core.Ingress runs on the
// single reactor goroutine but Snapshot may be called concurrently from an
// external status collaborator.
package metrics

import (
	"sync"
	"sync/atomic"
)

// transportCounters holds one transport's atomic packet counters.
type transportCounters struct {
	packetsIn  atomic.Uint64
	packetsOut atomic.Uint64
}

// Collector accumulates repeater-core counters across all registered
// transports. All methods are safe for concurrent use.
type Collector struct {
	mu         sync.RWMutex
	transports map[string]*transportCounters

	dropsFEC    atomic.Uint64
	dropsPolicy atomic.Uint64

	streamsMu     sync.Mutex
	activeStreams map[uint32]struct{}
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		transports:    make(map[string]*transportCounters),
		activeStreams: make(map[uint32]struct{}),
	}
}

func (c *Collector) counters(transport string) *transportCounters {
	c.mu.RLock()
	tc, ok := c.transports[transport]
	c.mu.RUnlock()
	if ok {
		return tc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tc, ok = c.transports[transport]; ok {
		return tc
	}
	tc = &transportCounters{}
	c.transports[transport] = tc
	return tc
}

// PacketIn records one packet received on transport.
func (c *Collector) PacketIn(transport string) {
	c.counters(transport).packetsIn.Add(1)
}

// PacketOut records one packet forwarded to transport.
func (c *Collector) PacketOut(transport string) {
	c.counters(transport).packetsOut.Add(1)
}

// DropFEC records a burst dropped for an uncorrectable FEC error.
func (c *Collector) DropFEC() {
	c.dropsFEC.Add(1)
}

// DropPolicy records a packet the routing policy rejected for every
// candidate destination.
func (c *Collector) DropPolicy() {
	c.dropsPolicy.Add(1)
}

// StreamStarted records a voice/data stream becoming active.
func (c *Collector) StreamStarted(streamID uint32) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()
	c.activeStreams[streamID] = struct{}{}
}

// StreamEnded records a stream ending.
func (c *Collector) StreamEnded(streamID uint32) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()
	delete(c.activeStreams, streamID)
}

// TransportSnapshot is one transport's counters at the moment Snapshot was
// called.
type TransportSnapshot struct {
	PacketsIn  uint64
	PacketsOut uint64
}

// Snapshot is a consistent-enough read of every counter for an external
// status collaborator (e.g. a CLI status command or a future HTTP
// exporter); it takes no lock across transports, so concurrent writers may
// advance counters between fields being read.
type Snapshot struct {
	Transports    map[string]TransportSnapshot
	DropsFEC      uint64
	DropsPolicy   uint64
	ActiveStreams int
}

// Snapshot returns the collector's current state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	transports := make(map[string]TransportSnapshot, len(c.transports))
	for name, tc := range c.transports {
		transports[name] = TransportSnapshot{
			PacketsIn:  tc.packetsIn.Load(),
			PacketsOut: tc.packetsOut.Load(),
		}
	}
	c.mu.RUnlock()

	c.streamsMu.Lock()
	activeStreams := len(c.activeStreams)
	c.streamsMu.Unlock()

	return Snapshot{
		Transports:    transports,
		DropsFEC:      c.dropsFEC.Load(),
		DropsPolicy:   c.dropsPolicy.Load(),
		ActiveStreams: activeStreams,
	}
}
