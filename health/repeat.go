package health

import (
	"time"

	"github.com/netdata/health-engine/types"
)

// RepeatCadence returns the configured repeat interval for rule's
// current status, or 0 if that status does not repeat (spec.md
// §4.6).
func RepeatCadence(rule *types.Rule) time.Duration {
	switch rule.Status {
	case types.StatusWarning:
		return rule.Repeat.WarnEvery
	case types.StatusCritical:
		return rule.Repeat.CritEvery
	default:
		return 0
	}
}

// DueForRepeat reports whether rule should emit a repeat tick at now
// (spec.md §4.6: "is_repeating and status in {Warning,Critical}...
// last_repeat + cadence <= now").
func DueForRepeat(rule *types.Rule, now time.Time) (time.Duration, bool) {
	if !rule.Repeat.IsRepeating() {
		return 0, false
	}
	cadence := RepeatCadence(rule)
	if cadence <= 0 {
		return 0, false
	}
	if rule.Repeat.LastRepeat.Add(cadence).After(now) {
		return 0, false
	}
	return cadence, true
}

// CreateRepeatEvent builds the synthetic event for a repeat tick. Per
// spec.md §4.6, old_status/new_status come from rule.OldStatus/
// rule.Status directly — no transition is required — and the event is
// marked IsRepeat so the dispatcher/log never store it (invariant
// P5).
func CreateRepeatEvent(rule *types.Rule, now time.Time) *types.Event {
	eventID := rule.NextEventID.Load()
	rule.NextEventID.Inc()

	var nonClearDuration time.Duration
	if !rule.NonClearSince.IsZero() {
		nonClearDuration = now.Sub(rule.NonClearSince)
	}

	ev := &types.Event{
		AlarmID:          rule.AlarmID,
		AlarmEventID:     eventID,
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
		OldStatus:        rule.OldStatus,
		NewStatus:        rule.Status,
		Source:           rule.Source,
		Units:            rule.Units,
		Info:             rule.Info,
		Delay:            rule.Delay.Last,
		LastRepeat:       now,
		IsRepeat:         true,
	}
	if rule.Flags.Has(types.FlagNoClearNotification) {
		ev.Flags |= types.EventNoClearNotification
	}
	if rule.Flags.Has(types.FlagSilenced) {
		ev.Flags |= types.EventSilenced
	}
	return ev
}
