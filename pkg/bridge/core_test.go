package bridge

import (
	"testing"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/config"
	"github.com/dbehnke/dmrcore/pkg/dmr"
	"github.com/dbehnke/dmrcore/pkg/logger"
)

func TestCore_RestoreHeaders_VoiceLCRebuildsFullLC(t *testing.T) {
	c := NewCore(1, logger.Discard())

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DstID:    9,
		SrcID:    3120001,
		FLCO:     burst.FLCOGroupVoiceChannelUser,
		DataType: burst.DataTypeVoiceLC,
		Burst:    burst.New(),
	}

	c.restoreHeaders(pkt)

	lc, ok := pkt.Burst.FullLC(burst.CRCMaskVoiceLC)
	if !ok {
		t.Fatal("expected a decodable Full LC after restoreHeaders")
	}
	if lc.DstID != 9 || lc.SrcID != 3120001 {
		t.Errorf("expected rewritten dst/src in Full LC, got dst=%d src=%d", lc.DstID, lc.SrcID)
	}
	if st := pkt.Burst.SlotType(); st.ColorCode != 1 || st.DataType != burst.DataTypeVoiceLC {
		t.Errorf("expected slot type color code 1 / VoiceLC, got %+v", st)
	}
	if pkt.Burst.Sync() != burst.SyncBSSourcedData {
		t.Errorf("expected burst re-stamped to BS-sourced data sync, got %v", pkt.Burst.Sync())
	}
}

func TestCore_RestoreHeaders_TerminatorUsesOwnCRCMask(t *testing.T) {
	c := NewCore(1, logger.Discard())

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DstID:    9,
		SrcID:    3120001,
		DataType: burst.DataTypeTerminatorWithLC,
		Burst:    burst.New(),
	}

	c.restoreHeaders(pkt)

	if _, ok := pkt.Burst.FullLC(burst.CRCMaskTerminatorWithLC); !ok {
		t.Fatal("expected Full LC decodable under the terminator CRC mask")
	}
}

func TestCore_RestoreHeaders_VoiceBurstARestampsSync(t *testing.T) {
	c := NewCore(3, logger.Discard())

	b := burst.New()
	b.SetFullSync(burst.SyncMSSourcedVoice)

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DataType: burst.DataTypeIdle, // burst A carries no slot-type data, only sync
		Burst:    b,
	}

	c.restoreHeaders(pkt)

	if pkt.Burst.Sync() != burst.SyncBSSourcedVoice {
		t.Errorf("expected voice burst A re-stamped to BS-sourced voice sync, got %v", pkt.Burst.Sync())
	}
}

func TestCore_RestoreHeaders_VoiceContinuationRestampsEmbOnly(t *testing.T) {
	c := NewCore(7, logger.Discard())

	b := burst.New()
	b.SetEmb(burst.EMB{ColorCode: 2, LCSS: burst.LCSSContinuation})

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DataType: burst.DataTypeIdle,
		Burst:    b,
	}

	c.restoreHeaders(pkt)

	e, ok := pkt.Burst.Emb()
	if !ok {
		t.Fatal("EMB decode failed after re-stamp")
	}
	if e.ColorCode != 7 {
		t.Errorf("expected EMB color code re-stamped to 7, got %d", e.ColorCode)
	}
	if e.LCSS != burst.LCSSContinuation {
		t.Errorf("LCSS should be untouched by an EMB color-code re-stamp, got %v", e.LCSS)
	}
	if pkt.Burst.Sync() != burst.SyncUnknown {
		t.Errorf("a burst with only EMB set should still report no recognised sync pattern, got %v", pkt.Burst.Sync())
	}
}

func TestCore_RestoreHeaders_DataSyncBurstRestampsSlotType(t *testing.T) {
	c := NewCore(5, logger.Discard())

	b := burst.New()
	b.SetFullSync(burst.SyncBSSourcedData)
	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DataType: burst.DataTypeCSBK,
		Burst:    b,
	}

	c.restoreHeaders(pkt)

	st := pkt.Burst.SlotType()
	if st.ColorCode != 5 || st.DataType != burst.DataTypeCSBK {
		t.Errorf("expected slot type re-stamped with color code 5 / CSBK, got %+v", st)
	}
}

// TestCore_Ingress_RoutesAndRewritesAcrossBridge exercises scenario S6: a
// packet arriving on one transport, destined for a talkgroup bridged to a
// different talkgroup/timeslot on another transport, is forwarded with its
// routing fields rewritten and its headers re-stamped for the repeater's
// own color code.
func TestCore_Ingress_RoutesAndRewritesAcrossBridge(t *testing.T) {
	c := NewCore(4, logger.Discard())

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	c.RegisterTransport(src)
	c.RegisterTransport(dst)

	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 2, Action: config.RouteActionAlways, TalkgroupID: 9},
		},
	}
	c.SetPolicy(NewRulePolicy(bridges))

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		SrcID:    3120001,
		DstID:    3100,
		FLCO:     burst.FLCOGroupVoiceChannelUser,
		DataType: burst.DataTypeVoiceLC,
		StreamID: 555,
		Burst:    burst.New(),
	}

	c.Ingress(src, pkt)

	if len(dst.sent) != 1 {
		t.Fatalf("expected 1 packet forwarded to SYSTEM2, got %d", len(dst.sent))
	}
	if len(src.sent) != 0 {
		t.Error("the source transport must never receive its own traffic back")
	}

	got := dst.sent[0]
	if got.DstID != 9 {
		t.Errorf("expected DstID rewritten to 9, got %d", got.DstID)
	}
	if got.Timeslot != burst.TS2 {
		t.Errorf("expected Timeslot rewritten to TS2, got %v", got.Timeslot)
	}

	lc, ok := got.Burst.FullLC(burst.CRCMaskVoiceLC)
	if !ok || lc.DstID != 9 {
		t.Errorf("expected forwarded burst's Full LC to carry the rewritten destination, got ok=%v lc=%+v", ok, lc)
	}

	// the original packet passed to Ingress must be untouched: Core copies
	// both the packet and its burst per destination before rewriting.
	if pkt.DstID != 3100 || pkt.Timeslot != burst.TS1 {
		t.Error("Ingress must not mutate the caller's packet in place")
	}
}

func TestCore_Ingress_RejectsUnbridgedTalkgroup(t *testing.T) {
	c := NewCore(4, logger.Discard())

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	c.RegisterTransport(src)
	c.RegisterTransport(dst)

	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 2, Action: config.RouteActionAlways, TalkgroupID: 9},
		},
	}
	c.SetPolicy(NewRulePolicy(bridges))

	pkt := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DstID:    9999,
		DataType: burst.DataTypeVoiceLC,
		StreamID: 556,
		Burst:    burst.New(),
	}

	c.Ingress(src, pkt)

	if len(dst.sent) != 0 {
		t.Errorf("expected no forwarded packets for an unbridged talkgroup, got %d", len(dst.sent))
	}
}

func TestCore_Ingress_EndsStreamOnTerminator(t *testing.T) {
	c := NewCore(4, logger.Discard())

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	c.RegisterTransport(src)
	c.RegisterTransport(dst)

	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
		},
	}
	c.SetPolicy(NewRulePolicy(bridges))

	header := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DstID:    3100,
		DataType: burst.DataTypeVoiceLC,
		StreamID: 777,
		Burst:    burst.New(),
	}
	c.Ingress(src, header)

	if !c.streams.IsActive(777) {
		t.Fatal("expected stream 777 to be active after the header packet")
	}

	term := &dmr.ParsedPacket{
		Timeslot: burst.TS1,
		DstID:    3100,
		DataType: burst.DataTypeTerminatorWithLC,
		StreamID: 777,
		Burst:    burst.New(),
	}
	c.Ingress(src, term)

	if c.streams.IsActive(777) {
		t.Error("expected stream 777 to be ended after the terminator packet")
	}
}
