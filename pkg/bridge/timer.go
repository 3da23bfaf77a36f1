package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/dbehnke/dmrcore/pkg/config"
)

// TimerManager manages per-rule auto-deactivate timeouts for ON_OFF
// bridge rules, grounded on the teacher's TimerManager, adapted from its
// local *BridgeRule to config.BridgeRule.
type TimerManager struct {
	timers map[string]*time.Timer
	mu     sync.Mutex
}

// NewTimerManager creates an empty timer manager.
func NewTimerManager() *TimerManager {
	return &TimerManager{timers: make(map[string]*time.Timer)}
}

func ruleKey(rule *config.BridgeRule) string {
	return fmt.Sprintf("%s:%d:%d", rule.Transport, rule.TalkgroupID, rule.Timeslot)
}

// SetTimeout arms rule's configured TimeoutMin, deactivating it on fire.
// A non-positive TimeoutMin is a no-op.
func (tm *TimerManager) SetTimeout(rule *config.BridgeRule) {
	if rule.TimeoutMin <= 0 {
		return
	}
	tm.SetTimeoutWithCallback(rule, time.Duration(rule.TimeoutMin)*time.Minute, func(r *config.BridgeRule) {
		r.Active = false
	})
}

// SetTimeoutWithCallback arms a timer for rule with a caller-supplied
// callback, replacing any timer already armed for the same rule.
func (tm *TimerManager) SetTimeoutWithCallback(rule *config.BridgeRule, d time.Duration, callback func(*config.BridgeRule)) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	key := ruleKey(rule)
	if existing, ok := tm.timers[key]; ok {
		existing.Stop()
	}
	tm.timers[key] = time.AfterFunc(d, func() {
		callback(rule)
		tm.mu.Lock()
		delete(tm.timers, key)
		tm.mu.Unlock()
	})
}

// ClearTimeout disarms rule's timer, if any.
func (tm *TimerManager) ClearTimeout(rule *config.BridgeRule) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	key := ruleKey(rule)
	if timer, ok := tm.timers[key]; ok {
		timer.Stop()
		delete(tm.timers, key)
	}
}

// RefreshTimeout re-arms rule's timeout from now, e.g. on continued
// traffic.
func (tm *TimerManager) RefreshTimeout(rule *config.BridgeRule) {
	tm.SetTimeout(rule)
}

// HasTimer reports whether rule currently has an armed timer.
func (tm *TimerManager) HasTimer(rule *config.BridgeRule) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.timers[ruleKey(rule)]
	return ok
}

// StopAll disarms every timer, e.g. on shutdown.
func (tm *TimerManager) StopAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, timer := range tm.timers {
		timer.Stop()
	}
	tm.timers = make(map[string]*time.Timer)
}
