// Package homebrew implements the Homebrew/IPSC-style UDP transport,
// grounded on the reference dmr_homebrew (src/dmr/protocol/homebrew.c),
// the newer of the two parallel Homebrew implementations the original
// source carries (see SPEC_FULL.md 9's Open Question: proto/homebrew.c
// is the older variant and is not normative here).
//
// Unlike the login-packet fields (repeater ID, SHA-256 digest), which
// the reference's dmr_raw_add_xuint32/add_hex encode as ASCII hex, a
// DMRD frame's fields are binary -- the reference's
// dmr_homebrew_send/dmr_homebrew_parse_dmrd write/read uint24 and
// uint32 directly, never through the hex formatter.
package homebrew

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/dmr"
)

// Packet type prefixes, grounded on the reference's literal string
// constants passed to dmr_raw_add.
const (
	typeDMRD    = "DMRD"
	typeRPTL    = "RPTL"
	typeRPTK    = "RPTK"
	typeRPTC    = "RPTC"
	typeRPTCL   = "RPTCL"
	typeMSTACK  = "MSTACK"
	typeMSTNAK  = "MSTNAK"
	typeMSTCL   = "MSTCL"
	typeMSTPING = "MSTPING"
	typeRPTPONG = "RPTPONG"
	typeRPTSBKN = "RPTSBKN"
)

// DMRDSize is the standard HBP DMRD frame: 4-byte signature + 16 bytes
// of routing fields + a 33-byte burst.
const DMRDSize = 4 + 1 + 3 + 3 + 4 + 1 + 4 + burst.Len

// DMRDOpenBridgeSize is DMRDSize plus a 20-byte HMAC-SHA1 trailer
// carried by OpenBridge-speaking masters. The transport accepts this
// size as an input variant (SPEC_FULL.md 4.5) but never requires it:
// HMAC verification is left to the caller's RoutingPolicy, not parsed
// for correctness here.
const DMRDOpenBridgeSize = DMRDSize + 20

// FrameType is the Homebrew slot_info byte's 2-bit frame-type-class
// field, grounded on dmr_homebrew_parse_dmrd's switch over
// (slot_info >> 2) & 0x03. It is distinct from burst.DataType, the
// ETSI slot-type field carried only inside a data-sync frame.
type FrameType uint8

const (
	FrameTypeVoice FrameType = iota
	FrameTypeVoiceSync
	FrameTypeDataSync
	FrameTypeUnknown
)

// DMRDFrame is the wire form of one Homebrew DMRD datagram.
type DMRDFrame struct {
	Sequence   uint8
	SrcID      uint32 // 24-bit
	DstID      uint32 // 24-bit
	RepeaterID uint32
	Timeslot   burst.Timeslot
	CallType   burst.CallType
	Frame      FrameType
	VoiceFrame uint8         // valid only when Frame == FrameTypeVoice: A-F sequence within a superframe
	DataType   burst.DataType // valid only when Frame == FrameTypeDataSync
	StreamID   uint32
	Burst      [burst.Len]byte
	HMAC       []byte // 20 bytes, only set for the OpenBridge variant
}

// ParseDMRD decodes a DMRD datagram, accepting either the standard
// 53-byte frame or the 73-byte OpenBridge+HMAC variant.
func ParseDMRD(data []byte) (DMRDFrame, error) {
	var f DMRDFrame
	if len(data) != DMRDSize && len(data) != DMRDOpenBridgeSize {
		return f, fmt.Errorf("homebrew: invalid DMRD size %d", len(data))
	}
	if string(data[0:4]) != typeDMRD {
		return f, fmt.Errorf("homebrew: invalid DMRD signature %q", data[0:4])
	}

	f.Sequence = data[4]
	f.SrcID = uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	f.DstID = uint32(data[8])<<16 | uint32(data[9])<<8 | uint32(data[10])
	f.RepeaterID = binary.BigEndian.Uint32(data[11:15])

	slot := data[15]
	if slot&0x01 != 0 {
		f.Timeslot = burst.TS2
	} else {
		f.Timeslot = burst.TS1
	}
	if slot&0x02 != 0 {
		f.CallType = burst.CallTypePrivate
	} else {
		f.CallType = burst.CallTypeGroup
	}
	switch (slot >> 2) & 0x03 {
	case 0x00:
		f.Frame = FrameTypeVoice
		f.VoiceFrame = slot >> 4
	case 0x01:
		f.Frame = FrameTypeVoiceSync
	case 0x02:
		f.Frame = FrameTypeDataSync
		f.DataType = burst.DataType(slot >> 4)
	default:
		f.Frame = FrameTypeUnknown
	}

	f.StreamID = binary.BigEndian.Uint32(data[16:20])
	copy(f.Burst[:], data[20:20+burst.Len])

	if len(data) == DMRDOpenBridgeSize {
		f.HMAC = append([]byte(nil), data[DMRDSize:DMRDSize+20]...)
	}
	return f, nil
}

// Encode renders f as a DMRD datagram: 73 bytes if HMAC is set, 53
// otherwise.
func (f DMRDFrame) Encode() []byte {
	size := DMRDSize
	if len(f.HMAC) > 0 {
		size = DMRDOpenBridgeSize
	}
	data := make([]byte, size)
	copy(data[0:4], typeDMRD)
	data[4] = f.Sequence
	data[5] = byte(f.SrcID >> 16)
	data[6] = byte(f.SrcID >> 8)
	data[7] = byte(f.SrcID)
	data[8] = byte(f.DstID >> 16)
	data[9] = byte(f.DstID >> 8)
	data[10] = byte(f.DstID)
	binary.BigEndian.PutUint32(data[11:15], f.RepeaterID)

	var slot byte
	if f.Timeslot == burst.TS2 {
		slot |= 0x01
	}
	if f.CallType == burst.CallTypePrivate {
		slot |= 0x02
	}
	switch f.Frame {
	case FrameTypeVoice:
		slot |= f.VoiceFrame << 4
	case FrameTypeVoiceSync:
		slot |= 0x04
	case FrameTypeDataSync:
		slot |= 0x08
		slot |= uint8(f.DataType) << 4
	default:
		slot |= 0x0c
	}
	data[15] = slot

	binary.BigEndian.PutUint32(data[16:20], f.StreamID)
	copy(data[20:20+burst.Len], f.Burst[:])
	if len(f.HMAC) > 0 {
		copy(data[DMRDSize:DMRDSize+20], f.HMAC)
	}
	return data
}

// ToParsedPacket adapts a decoded DMRDFrame into the transport-agnostic
// dmr.ParsedPacket the bridge router consumes.
func (f DMRDFrame) ToParsedPacket() (*dmr.ParsedPacket, error) {
	b, err := burst.FromBytes(f.Burst[:])
	if err != nil {
		return nil, err
	}
	flco := burst.FLCOGroupVoiceChannelUser
	if f.CallType == burst.CallTypePrivate {
		flco = burst.FLCOUnitToUnitVoiceChannelUser
	}
	return &dmr.ParsedPacket{
		Timeslot:   f.Timeslot,
		CallType:   f.CallType,
		SrcID:      f.SrcID,
		DstID:      f.DstID,
		RepeaterID: f.RepeaterID,
		Sequence:   f.Sequence,
		FLCO:       flco,
		DataType:   f.DataType,
		StreamID:   f.StreamID,
		VoiceFrame: f.VoiceFrame,
		Burst:      b,
	}, nil
}

// FromParsedPacket is the inverse of ToParsedPacket: it classifies p's
// frame type from its burst's sync pattern the way the bridge core's
// header-restore logic does, rather than trusting p.DataType/VoiceFrame
// alone, since a rewritten packet's DataType is only meaningful once its
// burst has actually been re-stamped for that frame class.
func FromParsedPacket(p *dmr.ParsedPacket, sequence uint8) DMRDFrame {
	f := DMRDFrame{
		Sequence:   sequence,
		SrcID:      p.SrcID,
		DstID:      p.DstID,
		RepeaterID: p.RepeaterID,
		Timeslot:   p.Timeslot,
		CallType:   p.CallType,
		StreamID:   p.StreamID,
	}
	copy(f.Burst[:], p.Burst.Bytes())

	switch p.Burst.Sync() {
	case burst.SyncBSSourcedVoice, burst.SyncMSSourcedVoice:
		f.Frame = FrameTypeVoiceSync
	case burst.SyncBSSourcedData, burst.SyncMSSourcedData:
		f.Frame = FrameTypeDataSync
		f.DataType = p.DataType
	default:
		f.Frame = FrameTypeVoice
		f.VoiceFrame = p.VoiceFrame
	}
	return f
}

// hexID renders a repeater ID as the reference's dmr_raw_add_xuint32
// does: 8 lowercase hex digits, zero-padded.
func hexID(id uint32) string {
	return fmt.Sprintf("%08x", id)
}

func parseHexID(s string) (uint32, error) {
	var id uint32
	if _, err := fmt.Sscanf(s, "%08x", &id); err != nil {
		return 0, fmt.Errorf("homebrew: invalid hex repeater id %q: %w", s, err)
	}
	return id, nil
}

// buildRPTL encodes the login-request datagram: "RPTL" + 8 hex-ASCII
// digits of the repeater ID (12 bytes total).
func buildRPTL(repeaterID uint32) []byte {
	return []byte(typeRPTL + hexID(repeaterID))
}

// buildRPTK encodes the key-exchange datagram: "RPTK" + 8 hex digits of
// the repeater ID + 64 hex digits of the SHA-256 digest (76 bytes
// total), grounded on homebrew_send_key's dmr_raw_add_hex of a
// SHA256_DIGEST_LENGTH buffer.
func buildRPTK(repeaterID uint32, digest [32]byte) []byte {
	return []byte(typeRPTK + hexID(repeaterID) + hex.EncodeToString(digest[:]))
}

// buildRPTCL encodes the disconnect datagram: "RPTCL" + 8 hex digits.
func buildRPTCL(repeaterID uint32) []byte {
	return []byte(typeRPTCL + hexID(repeaterID))
}

// buildMSTPING encodes the peer keepalive: "MSTPING" + 8 hex digits
// (15 bytes total), grounded on homebrew_io_ping_timer.
func buildMSTPING(repeaterID uint32) []byte {
	return []byte(typeMSTPING + hexID(repeaterID))
}

// parseMSTACK reports whether data is a 14- or 22-byte MSTACK/MSTNAK
// reply, its repeater ID, whether it was an ACK (vs NAK), and the
// 8-byte nonce if the 22-byte form was used.
func parseMSTACK(data []byte) (ack bool, repeaterID uint32, nonce []byte, ok bool) {
	if len(data) != 14 && len(data) != 22 {
		return false, 0, nil, false
	}
	if string(data[0:3]) != "MST" {
		return false, 0, nil, false
	}
	switch string(data[3:6]) {
	case "ACK":
		ack = true
	case "NAK":
		ack = false
	default:
		return false, 0, nil, false
	}
	id, err := parseHexID(string(data[6:14]))
	if err != nil {
		return false, 0, nil, false
	}
	if len(data) == 22 {
		nonce = append([]byte(nil), data[14:22]...)
	}
	return ack, id, nonce, true
}

// isRPTPONG reports whether data is a 15-byte "RPTPONG"+hex-id reply.
func isRPTPONG(data []byte) bool {
	return len(data) == 15 && string(data[0:7]) == typeRPTPONG
}

// isMSTCL reports whether data is an "MSTCL"+hex-id close notification.
func isMSTCL(data []byte) bool {
	return len(data) >= 5 && string(data[0:5]) == typeMSTCL
}
