package bridge

import (
	"sync"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/config"
	"github.com/dbehnke/dmrcore/pkg/dmr"
)

// timeslotNumber converts a burst.Timeslot to the 1/2 numbering
// config.BridgeRule uses.
func timeslotNumber(ts burst.Timeslot) uint8 {
	if ts == burst.TS2 {
		return 2
	}
	return 1
}

func timeslotFromNumber(n uint8) burst.Timeslot {
	if n == 2 {
		return burst.TS2
	}
	return burst.TS1
}

// ruleMatchesTG reports whether r currently routes dstID: an ALWAYS rule
// matches its single configured talkgroup unconditionally; an ON_OFF rule
// matches the same way but only while activated.
func ruleMatchesTG(r *config.BridgeRule, dstID uint32) bool {
	if r.Action == config.RouteActionOnOff && !r.Active {
		return false
	}
	return dstID == r.TalkgroupID
}

func containsTG(list []uint32, tgid uint32) bool {
	for _, v := range list {
		if v == tgid {
			return true
		}
	}
	return false
}

// RulePolicy is the conference-bridge RoutingPolicy: named bridges, each a
// set of config.BridgeRule legs (one per transport/timeslot), joining any
// leg that matches an arriving packet to every other leg of the same
// bridge. Grounded on the teacher's BridgeRuleSet/Router.RoutePacket,
// generalised from string "systems" and a raw *protocol.DMRDPacket to the
// Transport/dmr.ParsedPacket model of SPEC_FULL.md 6.
type RulePolicy struct {
	mu      sync.RWMutex
	bridges map[string][]*config.BridgeRule
	timers  *TimerManager
}

// NewRulePolicy builds a RulePolicy from a RepeaterConfig's named bridge
// rule sets, activating every ALWAYS rule up front (ON_OFF rules start
// inactive unless the config already marked them Active).
func NewRulePolicy(bridges map[string][]config.BridgeRule) *RulePolicy {
	p := &RulePolicy{
		bridges: make(map[string][]*config.BridgeRule),
		timers:  NewTimerManager(),
	}
	for name, rules := range bridges {
		out := make([]*config.BridgeRule, len(rules))
		for i := range rules {
			r := rules[i]
			if r.Action == config.RouteActionAlways {
				r.Active = true
			}
			out[i] = &r
		}
		p.bridges[name] = out
	}
	return p
}

// Route implements RoutingPolicy. It looks for a bridge in which src's
// leg currently routes pkt's destination talkgroup and dst also has a
// leg; if dst's leg names a different timeslot or talkgroup, pkt is
// rewritten in place (scenario S6) and RoutePermit is returned, otherwise
// RoutePermitUnmodified is. A packet with no matching bridge is rejected.
func (p *RulePolicy) Route(src, dst Transport, pkt *dmr.ParsedPacket) RouteDecision {
	p.mu.RLock()
	defer p.mu.RUnlock()

	srcTS := timeslotNumber(pkt.Timeslot)
	for _, rules := range p.bridges {
		var srcRule, dstRule *config.BridgeRule
		for _, r := range rules {
			if r.Transport == src.Name() && r.Timeslot == srcTS && ruleMatchesTG(r, pkt.DstID) {
				srcRule = r
				break
			}
		}
		if srcRule == nil {
			continue
		}
		for _, r := range rules {
			if r.Transport == dst.Name() && r != srcRule {
				dstRule = r
				break
			}
		}
		if dstRule == nil {
			continue
		}
		if dstRule.Action == config.RouteActionOnOff && !dstRule.Active {
			continue
		}

		if dstRule.Timeslot == srcTS && dstRule.TalkgroupID == pkt.DstID {
			return RoutePermitUnmodified
		}
		pkt.Timeslot = timeslotFromNumber(dstRule.Timeslot)
		pkt.DstID = dstRule.TalkgroupID
		return RoutePermit
	}
	return RouteReject
}

// ProcessActivation activates every ON_OFF rule across all bridges whose
// ActivateTGs contains tgid, arming its auto-deactivate timer if
// configured.
func (p *RulePolicy) ProcessActivation(tgid uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rules := range p.bridges {
		for _, r := range rules {
			if r.Action == config.RouteActionOnOff && containsTG(r.ActivateTGs, tgid) {
				r.Active = true
				if r.TimeoutMin > 0 {
					p.timers.SetTimeout(r)
				}
			}
		}
	}
}

// ProcessDeactivation deactivates every ON_OFF rule across all bridges
// whose DeactivateTGs contains tgid.
func (p *RulePolicy) ProcessDeactivation(tgid uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rules := range p.bridges {
		for _, r := range rules {
			if r.Action == config.RouteActionOnOff && containsTG(r.DeactivateTGs, tgid) {
				r.Active = false
				p.timers.ClearTimeout(r)
			}
		}
	}
}

// Snapshot reports every rule's current activation state, keyed by bridge
// name, for an external status surface.
func (p *RulePolicy) Snapshot() map[string][]config.BridgeRule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string][]config.BridgeRule, len(p.bridges))
	for name, rules := range p.bridges {
		snap := make([]config.BridgeRule, len(rules))
		for i, r := range rules {
			snap[i] = *r
		}
		out[name] = snap
	}
	return out
}
