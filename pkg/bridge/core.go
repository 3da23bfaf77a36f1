package bridge

import (
	"sync"
	"time"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/dmr"
	"github.com/dbehnke/dmrcore/pkg/logger"
	"github.com/dbehnke/dmrcore/pkg/metrics"
	"github.com/dbehnke/dmrcore/pkg/reactor"
)

// cleanupInterval is how often the reactor timer sweeps stale stream and
// transmission-log bookkeeping.
const cleanupInterval = 10 * time.Second

// staleStreamAge is how long a stream may go without a terminator before
// CleanupOldStreams/CleanupStaleStreams treat it as abandoned.
const staleStreamAge = 5 * time.Second

// slotState is the repeater core's per-timeslot bookkeeping (spec 4.8):
// last-seen source/dest, last stream id, last data type, last-frame
// wallclock and a running sequence counter, under a mutex so an optional
// audio thread can read it concurrently with the reactor goroutine.
type slotState struct {
	mu           sync.Mutex
	lastSrcID    uint32
	lastDstID    uint32
	lastStreamID uint32
	lastDataType burst.DataType
	lastFrameAt  time.Time
	sequence     uint8
}

// ActivationProcessor is implemented by a RoutingPolicy that also supports
// talkgroup-activated (ON_OFF) bridge rules, e.g. RulePolicy. Kept separate
// from RoutingPolicy itself so that interface matches spec 6 exactly; Core
// type-asserts for it rather than requiring every policy to implement it.
type ActivationProcessor interface {
	ProcessActivation(tgid uint32)
	ProcessDeactivation(tgid uint32)
}

// Core is the repeater core (spec 4.8): it receives a decoded packet from
// one transport's rx callback and, per the configured RoutingPolicy,
// forwards a re-stamped copy to every permitting destination transport.
// Grounded on the teacher's Router, generalised from its string-keyed
// "systems" and raw *protocol.DMRDPacket to the Transport/dmr.ParsedPacket
// abstractions SPEC_FULL.md 6 calls for.
type Core struct {
	mu         sync.RWMutex
	transports map[string]Transport
	policy     RoutingPolicy
	colorCode  uint8

	streams  *StreamTracker
	txLogger *TransmissionLogger

	audioSink AudioSink
	frameTap  FrameTap
	log       *logger.Logger
	metrics   *metrics.Collector

	slots [2]*slotState
}

// NewCore returns a Core configured with the repeater's own color code,
// used to re-stamp a forwarded burst's slot type or EMB field (spec 4.8c).
func NewCore(colorCode uint8, log *logger.Logger) *Core {
	if log == nil {
		log = logger.Discard()
	}
	return &Core{
		transports: make(map[string]Transport),
		colorCode:  colorCode,
		streams:    NewStreamTracker(),
		log:        log.WithComponent("bridge"),
		slots:      [2]*slotState{{}, {}},
	}
}

// RegisterTransport adds t as both a candidate source and destination.
func (c *Core) RegisterTransport(t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transports[t.Name()] = t
}

// SetPolicy installs the routing policy consulted on every Ingress call.
func (c *Core) SetPolicy(p RoutingPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// SetAudioSink installs the optional decoded-voice consumer.
func (c *Core) SetAudioSink(s AudioSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioSink = s
}

// SetFrameTap installs the optional raw-burst observer.
func (c *Core) SetFrameTap(t FrameTap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameTap = t
}

// SetTransmissionLogger installs the optional per-call accounting sink.
func (c *Core) SetTransmissionLogger(l *TransmissionLogger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txLogger = l
}

// SetMetrics installs the optional counter collector.
func (c *Core) SetMetrics(m *metrics.Collector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// RegisterCleanup wires a periodic sweep of stale stream/transmission
// bookkeeping into loop, so a long-lived process never accumulates
// entries for streams that never saw a terminator (lost transport,
// dropped burst).
func (c *Core) RegisterCleanup(loop *reactor.Loop) {
	loop.RegisterTimer(cleanupInterval, func() error {
		c.streams.CleanupOldStreams(staleStreamAge)
		if c.txLogger != nil {
			c.txLogger.CleanupStaleStreams(staleStreamAge)
		}
		return nil
	}, false)
}

// Ingress is the rx callback entry point for a transport (spec 4.8,
// inbound path): it identifies the slot, consults the routing policy for
// every other registered transport, synthesises missing headers for each
// permitting destination and forwards the result.
func (c *Core) Ingress(src Transport, pkt *dmr.ParsedPacket) {
	c.mu.RLock()
	dests := make([]Transport, 0, len(c.transports))
	for name, t := range c.transports {
		if name == src.Name() {
			continue // a transport never re-receives its own traffic
		}
		dests = append(dests, t)
	}
	policy := c.policy
	tap := c.frameTap
	c.mu.RUnlock()

	if tap != nil {
		tap.TapBurst("rx", src.Name(), pkt.Burst.Bytes())
	}

	st := c.slotFor(pkt.Timeslot)
	st.mu.Lock()
	st.lastSrcID, st.lastDstID = pkt.SrcID, pkt.DstID
	st.lastStreamID = pkt.StreamID
	st.lastDataType = pkt.DataType
	st.lastFrameAt = time.Now()
	st.sequence = pkt.Sequence
	st.mu.Unlock()

	metricsCollector := c.metrics
	isNewStream := !c.streams.IsActive(pkt.StreamID)
	c.streams.TrackStream(pkt.StreamID, src.Name())
	if metricsCollector != nil && isNewStream {
		metricsCollector.StreamStarted(pkt.StreamID)
	}

	if ap, ok := policy.(ActivationProcessor); ok {
		ap.ProcessActivation(pkt.DstID)
		ap.ProcessDeactivation(pkt.DstID)
	}

	anyForwarded := false
	if policy != nil {
		for _, dst := range dests {
			cp := *pkt
			b := *pkt.Burst
			cp.Burst = &b

			if policy.Route(src, dst, &cp) == RouteReject {
				continue
			}
			c.restoreHeaders(&cp)

			if err := dst.Send(&cp); err != nil {
				c.log.Error("transport write failed",
					logger.String("transport", dst.Name()), logger.Error(err))
				continue
			}
			anyForwarded = true
			if tap != nil {
				tap.TapBurst("tx", dst.Name(), cp.Burst.Bytes())
			}
			if c.txLogger != nil {
				isTerminator := cp.DataType == burst.DataTypeTerminatorWithLC
				c.txLogger.LogPacket(cp.StreamID, cp.SrcID, cp.DstID, cp.RepeaterID,
					int(timeslotNumber(cp.Timeslot)), isTerminator)
			}
		}
	}
	if metricsCollector != nil && !anyForwarded && len(dests) > 0 {
		metricsCollector.DropPolicy()
	}

	if pkt.DataType == burst.DataTypeTerminatorWithLC {
		c.streams.EndStream(pkt.StreamID)
		if metricsCollector != nil {
			metricsCollector.StreamEnded(pkt.StreamID)
		}
	}
}

func (c *Core) slotFor(ts burst.Timeslot) *slotState {
	if ts == burst.TS2 {
		return c.slots[1]
	}
	return c.slots[0]
}

// restoreHeaders re-stamps cp's burst so it is physically correct as a
// transmission originating from this repeater, independent of whatever
// routing-field rewrite policy.Route already performed (spec 4.8c): a
// VOICE_LC/TERMINATOR_WITH_LC burst has its full LC rebuilt from cp's
// (possibly rewritten) src/dst and re-encoded; a voice burst A has its
// sync pattern re-stamped to this repeater's own sourcing convention; a
// voice continuation burst B-F has only its EMB color code re-stamped;
// any other data-sync burst has its Golay-protected slot type re-stamped
// with this repeater's configured color code.
func (c *Core) restoreHeaders(cp *dmr.ParsedPacket) {
	switch cp.DataType {
	case burst.DataTypeVoiceLC, burst.DataTypeTerminatorWithLC:
		mask := burst.CRCMaskVoiceLC
		if cp.DataType == burst.DataTypeTerminatorWithLC {
			mask = burst.CRCMaskTerminatorWithLC
		}
		cp.Burst.SetFullSync(burst.SyncBSSourcedData)
		cp.Burst.SetSlotType(burst.SlotType{ColorCode: c.colorCode, DataType: cp.DataType})
		cp.Burst.SetFullLC(burst.FullLC{FLCO: cp.FLCO, DstID: cp.DstID, SrcID: cp.SrcID}, mask)
		return
	}

	switch cp.Burst.Sync() {
	case burst.SyncBSSourcedVoice, burst.SyncMSSourcedVoice:
		cp.Burst.SetFullSync(burst.SyncBSSourcedVoice)
	case burst.SyncUnknown:
		if e, ok := cp.Burst.Emb(); ok {
			e.ColorCode = c.colorCode
			cp.Burst.SetEmb(e)
		}
	default:
		cp.Burst.SetSlotType(burst.SlotType{ColorCode: c.colorCode, DataType: cp.DataType})
	}
}
