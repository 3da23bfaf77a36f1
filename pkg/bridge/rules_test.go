package bridge

import (
	"testing"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/config"
	"github.com/dbehnke/dmrcore/pkg/dmr"
)

// fakeTransport is a minimal Transport used only to exercise RulePolicy.Route
// and Core.Ingress's forwarding logic; Send just records the packets it saw.
type fakeTransport struct {
	name string
	sent []*dmr.ParsedPacket
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Send(p *dmr.ParsedPacket) error {
	f.sent = append(f.sent, p)
	return nil
}

func newVoicePacket(ts burst.Timeslot, dstID uint32, streamID uint32) *dmr.ParsedPacket {
	return &dmr.ParsedPacket{
		Timeslot: ts,
		CallType: burst.CallTypeGroup,
		SrcID:    3120001,
		DstID:    dstID,
		DataType: burst.DataTypeVoiceLC,
		StreamID: streamID,
		Burst:    burst.New(),
	}
}

func TestRulePolicy_Route_AlwaysSameLeg(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
		},
	}
	p := NewRulePolicy(bridges)

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	pkt := newVoicePacket(burst.TS1, 3100, 12345)

	decision := p.Route(src, dst, pkt)
	if decision != RoutePermitUnmodified {
		t.Fatalf("expected RoutePermitUnmodified, got %v", decision)
	}
	if pkt.DstID != 3100 || pkt.Timeslot != burst.TS1 {
		t.Error("packet fields should not be rewritten when legs match exactly")
	}
}

func TestRulePolicy_Route_RewritesCrossTalkgroup(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 2, Action: config.RouteActionAlways, TalkgroupID: 9},
		},
	}
	p := NewRulePolicy(bridges)

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	pkt := newVoicePacket(burst.TS1, 3100, 12345)

	decision := p.Route(src, dst, pkt)
	if decision != RoutePermit {
		t.Fatalf("expected RoutePermit, got %v", decision)
	}
	if pkt.DstID != 9 {
		t.Errorf("expected DstID rewritten to 9, got %d", pkt.DstID)
	}
	if pkt.Timeslot != burst.TS2 {
		t.Errorf("expected Timeslot rewritten to TS2, got %v", pkt.Timeslot)
	}
}

func TestRulePolicy_Route_NoMatchingBridge(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{Transport: "SYSTEM2", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
		},
	}
	p := NewRulePolicy(bridges)

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	pkt := newVoicePacket(burst.TS1, 9999, 12345)

	if decision := p.Route(src, dst, pkt); decision != RouteReject {
		t.Fatalf("expected RouteReject for non-matching talkgroup, got %v", decision)
	}
}

func TestRulePolicy_Route_OnOffInactiveDestinationRejects(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"CONFERENCE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
			{
				Transport:     "SYSTEM2",
				Timeslot:      1,
				Action:        config.RouteActionOnOff,
				TalkgroupID:   3100,
				ActivateTGs:   []uint32{8001},
				DeactivateTGs: []uint32{8002},
			},
		},
	}
	p := NewRulePolicy(bridges)

	src := &fakeTransport{name: "SYSTEM1"}
	dst := &fakeTransport{name: "SYSTEM2"}
	pkt := newVoicePacket(burst.TS1, 3100, 12345)

	if decision := p.Route(src, dst, pkt); decision != RouteReject {
		t.Fatalf("expected RouteReject while ON_OFF leg is inactive, got %v", decision)
	}

	p.ProcessActivation(8001)

	pkt2 := newVoicePacket(burst.TS1, 3100, 12346)
	if decision := p.Route(src, dst, pkt2); decision != RoutePermitUnmodified {
		t.Fatalf("expected RoutePermitUnmodified once ON_OFF leg is activated, got %v", decision)
	}

	p.ProcessDeactivation(8002)

	pkt3 := newVoicePacket(burst.TS1, 3100, 12347)
	if decision := p.Route(src, dst, pkt3); decision != RouteReject {
		t.Fatalf("expected RouteReject after ON_OFF leg deactivated, got %v", decision)
	}
}

func TestRulePolicy_ProcessActivation_ArmsTimeout(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"CONFERENCE": {
			{
				Transport:     "SYSTEM2",
				Timeslot:      1,
				Action:        config.RouteActionOnOff,
				TalkgroupID:   3100,
				ActivateTGs:   []uint32{8001},
				TimeoutMin:    5,
			},
		},
	}
	p := NewRulePolicy(bridges)
	p.ProcessActivation(8001)

	snap := p.Snapshot()
	rules := snap["CONFERENCE"]
	if len(rules) != 1 || !rules[0].Active {
		t.Fatal("expected rule to be activated")
	}
	if !p.timers.HasTimer(&rules[0]) {
		// HasTimer keys on Transport/TalkgroupID/Timeslot, not pointer identity,
		// so a freshly copied rule still matches the armed timer.
		t.Error("expected an armed timeout timer after activation")
	}
}

func TestRulePolicy_Snapshot(t *testing.T) {
	bridges := map[string][]config.BridgeRule{
		"NATIONWIDE": {
			{Transport: "SYSTEM1", Timeslot: 1, Action: config.RouteActionAlways, TalkgroupID: 3100},
		},
	}
	p := NewRulePolicy(bridges)

	snap := p.Snapshot()
	rules, ok := snap["NATIONWIDE"]
	if !ok || len(rules) != 1 {
		t.Fatal("expected snapshot to contain the NATIONWIDE bridge")
	}
	if !rules[0].Active {
		t.Error("expected ALWAYS rule to be active from construction")
	}
}
