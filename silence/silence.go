// Package silence implements the silencer engine (spec.md §4.2,
// component C2): matching alarm rules against a user-supplied glob
// pattern ruleset, and the Disabled/Silenced flag update that follows
// from that match.
//
// Grounded on original_source/health/health.c's check_silenced and
// update_disabled_silenced. Pattern matching uses
// github.com/gobwas/glob, the Go-native analogue of netdata's
// simple_pattern_matches.
package silence

import (
	"sync"

	"github.com/gobwas/glob"

	"github.com/netdata/health-engine/types"
)

// Subject is the subset of a Rule's identity the silencer engine
// matches against (spec.md §4.2: "alarm info name, context, chart,
// host, family").
type Subject struct {
	Alarm   string
	Chart   string
	Context string
	Host    string
	Family  string
}

type compiledMatcher struct {
	alarm, chart, context, host, family glob.Glob
}

func compile(pattern string) glob.Glob {
	if pattern == "" {
		return nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		// An unparsable pattern is treated as absent, i.e. as a
		// wildcard that matches every value, rather than aborting the
		// whole ruleset.
		return nil
	}
	return g
}

func compileMatcher(s types.Silencer) compiledMatcher {
	return compiledMatcher{
		alarm:   compile(s.Alarm),
		chart:   compile(s.Chart),
		context: compile(s.Context),
		host:    compile(s.Host),
		family:  compile(s.Family),
	}
}

func matchOne(g glob.Glob, value string) bool {
	if g == nil {
		// Absent pattern is a wildcard.
		return true
	}
	return g.Match(value)
}

func (m compiledMatcher) matches(subj Subject) bool {
	return matchOne(m.alarm, subj.Alarm) &&
		matchOne(m.chart, subj.Chart) &&
		matchOne(m.context, subj.Context) &&
		matchOne(m.host, subj.Host) &&
		matchOne(m.family, subj.Family)
}

// Engine holds the current silencer ruleset, replaced atomically by
// the (out-of-scope) control API.
type Engine struct {
	mtx       sync.RWMutex
	ruleset   types.Silencers
	compiled  []compiledMatcher
}

// NewEngine returns an Engine with an empty (inert) ruleset.
func NewEngine() *Engine {
	return &Engine{}
}

// Replace atomically swaps the active ruleset, compiling its patterns
// once so CheckSilenced does not recompile globs per rule per
// iteration.
func (e *Engine) Replace(rs types.Silencers) {
	compiled := make([]compiledMatcher, len(rs.Silencers))
	for i, s := range rs.Silencers {
		compiled[i] = compileMatcher(s)
	}

	e.mtx.Lock()
	e.ruleset = rs
	e.compiled = compiled
	e.mtx.Unlock()
}

// Ruleset returns a copy of the active ruleset (for introspection/the
// control API's read side).
func (e *Engine) Ruleset() types.Silencers {
	e.mtx.RLock()
	defer e.mtx.RUnlock()
	return e.ruleset
}

// CheckSilenced walks the matcher list in order and returns the
// SilenceType of the first match, or SilenceNone if nothing matches
// (spec.md §4.2). A match on a matcher with stype None is inert: it
// still stops the walk, but returns None.
func (e *Engine) CheckSilenced(subj Subject) types.SilenceType {
	e.mtx.RLock()
	defer e.mtx.RUnlock()

	for _, m := range e.compiled {
		if m.matches(subj) {
			return e.ruleset.Type
		}
	}
	return types.SilenceNone
}

// UpdateDisabledSilenced clears and recomputes the Disabled/Silenced
// flags on rule (spec.md §4.2). It returns true iff the rule is now
// Disabled, in which case the caller must skip evaluating it.
func (e *Engine) UpdateDisabledSilenced(hostname string, rule *types.Rule) bool {
	rule.Flags &^= types.FlagDisabled | types.FlagSilenced

	e.mtx.RLock()
	allAlarms := e.ruleset.AllAlarms
	stype := e.ruleset.Type
	e.mtx.RUnlock()

	var effective types.SilenceType
	if allAlarms {
		effective = stype
	} else {
		effective = e.CheckSilenced(Subject{
			Alarm:   rule.Name,
			Chart:   rule.Chart,
			Context: rule.Context,
			Host:    hostname,
			Family:  rule.Family,
		})
	}

	switch effective {
	case types.SilenceDisableAlarms:
		rule.Flags |= types.FlagDisabled
	case types.SilenceNotifications:
		rule.Flags |= types.FlagSilenced
	}

	return rule.Flags.Has(types.FlagDisabled)
}
