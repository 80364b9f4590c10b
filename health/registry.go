package health

import (
	"sync"

	"github.com/netdata/health-engine/types"
)

// Registry is the RWMutex-guarded set of rules bound to one host
// (spec.md §3, Rule (R); component C1). Grounded on alertmanager's
// provider/mem.alertStore: a map keyed by identity, held under one
// RWMutex, snapshotted under the read lock rather than iterated live.
type Registry struct {
	mtx   sync.RWMutex
	rules map[uint32]*types.Rule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[uint32]*types.Rule)}
}

// Add registers rule, replacing any existing rule with the same
// AlarmID (spec.md §4.9 reload re-link).
func (r *Registry) Add(rule *types.Rule) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.rules[rule.AlarmID] = rule
}

// Remove drops the rule with the given AlarmID, if present.
func (r *Registry) Remove(alarmID uint32) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.rules, alarmID)
}

// Get returns the rule with the given AlarmID, or nil if none exists.
func (r *Registry) Get(alarmID uint32) *types.Rule {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.rules[alarmID]
}

// Len reports the number of registered rules.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.rules)
}

// Snapshot returns a stable copy of the current rule pointers for the
// evaluation loop to walk without holding the registry lock across a
// potentially slow pass (spec.md §5: the engine must not hold any
// registry lock while calling out to the metric store or evaluator).
func (r *Registry) Snapshot() []*types.Rule {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	out := make([]*types.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out
}

// ForEachCollectedRule implements the dispatcher's RuleCounter
// capability (spec.md §4.8): it visits every rule whose chart has
// produced at least one sample, matching health.c's
// rrdcalc->rrdset->last_collected_time.tv_sec != 0 guard in the
// WARNING/CRITICAL counting loop.
func (r *Registry) ForEachCollectedRule(fn func(rule *types.Rule)) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	for _, rule := range r.rules {
		if !rule.ChartCollected {
			continue
		}
		fn(rule)
	}
}

var _ RuleCounter = (*Registry)(nil)
