package health

import (
	"time"

	"github.com/netdata/health-engine/types"
)

// DeriveStatus implements spec.md §4.3's derivation of a rule's new
// status from its warning/critical ValueStatus pair. Grounded on
// health.c's two switch statements in health_main.
func DeriveStatus(warn, crit types.ValueStatus) types.Status {
	status := types.StatusUndefined

	switch warn {
	case types.ValueClear:
		status = types.StatusClear
	case types.ValueRaised:
		status = types.StatusWarning
	}

	switch crit {
	case types.ValueClear:
		if status == types.StatusUndefined {
			status = types.StatusClear
		}
	case types.ValueRaised:
		status = types.StatusCritical
	}

	return status
}

// ApplyHysteresis updates rule's delay working state for a transition
// to newStatus at instant now, and returns the delay to apply before
// the transition may be notified (spec.md §4.4).
func ApplyHysteresis(rule *types.Rule, newStatus types.Status, now time.Time) time.Duration {
	d := &rule.Delay

	if now.After(d.UpToTimestamp) {
		d.UpCurrent = d.UpDuration
		d.DownCurrent = d.DownDuration
		d.Last = 0
		d.UpToTimestamp = time.Time{}
	} else {
		d.UpCurrent = clampDuration(time.Duration(float64(d.UpCurrent)*d.Multiplier), d.MaxDuration)
		d.DownCurrent = clampDuration(time.Duration(float64(d.DownCurrent)*d.Multiplier), d.MaxDuration)
	}

	var delay time.Duration
	if newStatus > rule.Status {
		delay = d.UpCurrent
	} else {
		delay = d.DownCurrent
	}

	d.Last = delay
	d.UpToTimestamp = now.Add(delay)

	return delay
}

func clampDuration(v, max time.Duration) time.Duration {
	if max > 0 && v > max {
		return max
	}
	return v
}

// CreateTransitionEvent builds the Event appended on a non-repeating
// status transition (spec.md §4.5). Apart from advancing
// rule.NextEventID it does not mutate rule, and it does not append the
// event to any log — callers apply that afterwards so the function
// stays trivially testable.
func CreateTransitionEvent(rule *types.Rule, newStatus types.Status, now time.Time, delay time.Duration) *types.Event {
	eventID := rule.NextEventID.Load()
	rule.NextEventID.Inc()

	var nonClearDuration time.Duration
	if !rule.NonClearSince.IsZero() {
		nonClearDuration = now.Sub(rule.NonClearSince)
	}

	ev := &types.Event{
		AlarmID:          rule.AlarmID,
		When:             now,
		Name:             rule.Name,
		Chart:            rule.Chart,
		Family:           rule.Family,
		Exec:             rule.Exec,
		Recipient:        rule.Recipient,
		Duration:         now.Sub(rule.LastStatusChange),
		NonClearDuration: nonClearDuration,
		OldValue:         rule.OldValue,
		NewValue:         rule.Value,
		OldStatus:        rule.Status,
		NewStatus:        newStatus,
		Source:           rule.Source,
		Units:            rule.Units,
		Info:             rule.Info,
		Delay:            delay,
		AlarmEventID:     eventID,
	}
	if rule.Flags.Has(types.FlagNoClearNotification) {
		ev.Flags |= types.EventNoClearNotification
	}
	if rule.Flags.Has(types.FlagSilenced) {
		ev.Flags |= types.EventSilenced
	}
	return ev
}

// ApplyTransition advances rule's status bookkeeping after an event
// has been created for the transition (spec.md §4.5: "update
// rule.last_status_change, rule.old_status, rule.status").
func ApplyTransition(rule *types.Rule, newStatus types.Status, now time.Time) {
	rule.LastStatusChange = now
	rule.OldStatus = rule.Status
	rule.Status = newStatus

	if newStatus <= types.StatusClear {
		rule.NonClearSince = time.Time{}
	} else if rule.NonClearSince.IsZero() {
		rule.NonClearSince = now
	}
}
