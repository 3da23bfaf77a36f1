// Package bridge implements the repeater core: the per-timeslot routing
// engine that moves a decoded DMR burst from the transport it arrived on
// to every transport a RoutingPolicy permits, synthesising whatever
// header that destination needs along the way. Grounded on the teacher's
// pkg/bridge (Router/BridgeRuleSet/StreamTracker/TimerManager), generalised
// from its string-keyed "system" model to the transport-agnostic
// dmr.ParsedPacket/Transport abstractions.
package bridge

import (
	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/dmr"
)

// Transport is anything the repeater core can route a packet to or from:
// pkg/homebrew.Client and pkg/mmdvm.Transport both satisfy it.
type Transport interface {
	// Name identifies the transport for routing rules, logging and loop
	// detection (a transport is never offered as its own destination).
	Name() string
	// Send transmits p, rewritten for this destination by the caller.
	Send(p *dmr.ParsedPacket) error
}

// RouteDecision is the outcome of consulting a RoutingPolicy for one
// (source, destination, packet) triple.
type RouteDecision uint8

const (
	// RouteReject means the packet must not be forwarded to this
	// destination.
	RouteReject RouteDecision = iota
	// RoutePermit means the packet may be forwarded; the policy may have
	// rewritten pkt's SrcID/DstID/Timeslot/FLCO in place first.
	RoutePermit
	// RoutePermitUnmodified means the packet may be forwarded without the
	// policy having rewritten its routing fields; the core still re-stamps
	// the burst's physical-layer headers (sync/slot-type/EMB/full LC) for
	// this destination regardless of which RoutePermit variant is returned.
	RoutePermitUnmodified
)

// RoutingPolicy is supplied by the caller (typically built from
// config.BridgeRule) and decides, for every candidate destination, what
// happens to a packet arriving from src.
type RoutingPolicy interface {
	Route(src, dst Transport, pkt *dmr.ParsedPacket) RouteDecision
}

// AudioSink receives decoded voice payload bytes; the AMBE vocoder is
// external to this package and implements this interface, never called
// from inside the core.
type AudioSink interface {
	WriteVoiceFrame(ts burst.Timeslot, streamID uint32, frame [3][7]byte)
}

// FrameTap receives every raw burst the core handles, in and out, for
// PCAP-style offline dumping. direction is "rx" or "tx"; transport is the
// Transport's Name().
type FrameTap interface {
	TapBurst(direction string, transport string, raw []byte)
}
