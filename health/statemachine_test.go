package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/netdata/health-engine/types"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, types.StatusUndefined, DeriveStatus(types.ValueUndefined, types.ValueUndefined))
	assert.Equal(t, types.StatusClear, DeriveStatus(types.ValueClear, types.ValueUndefined))
	assert.Equal(t, types.StatusWarning, DeriveStatus(types.ValueRaised, types.ValueUndefined))
	assert.Equal(t, types.StatusCritical, DeriveStatus(types.ValueClear, types.ValueRaised))
	assert.Equal(t, types.StatusCritical, DeriveStatus(types.ValueRaised, types.ValueRaised))
	assert.Equal(t, types.StatusWarning, DeriveStatus(types.ValueRaised, types.ValueClear), "a clear critical does not override a raised warning")
}

func TestApplyHysteresis_FreshDelayAfterCooldown(t *testing.T) {
	rule := &types.Rule{
		Delay: types.Hysteresis{UpDuration: time.Minute, DownDuration: 30 * time.Second, Multiplier: 1},
	}
	now := time.Now()

	delay := ApplyHysteresis(rule, types.StatusWarning, now)

	assert.Equal(t, time.Minute, delay)
	assert.Equal(t, now.Add(time.Minute), rule.Delay.UpToTimestamp)
}

func TestApplyHysteresis_MultipliesWhileStillWithinPriorWindow(t *testing.T) {
	now := time.Now()
	rule := &types.Rule{
		Status: types.StatusWarning,
		Delay: types.Hysteresis{
			UpDuration: time.Minute, DownDuration: 30 * time.Second,
			UpCurrent: time.Minute, DownCurrent: 30 * time.Second,
			Multiplier: 2, MaxDuration: time.Hour,
			UpToTimestamp: now.Add(time.Hour), // still active, so multiply rather than reset
		},
	}

	delay := ApplyHysteresis(rule, types.StatusCritical, now)

	assert.Equal(t, 2*time.Minute, delay, "escalating while inside the prior window doubles UpCurrent")
}

func TestApplyHysteresis_ClampsToMaxDuration(t *testing.T) {
	now := time.Now()
	rule := &types.Rule{
		Status: types.StatusWarning,
		Delay: types.Hysteresis{
			UpCurrent: time.Hour, Multiplier: 10, MaxDuration: 90 * time.Minute,
			UpToTimestamp: now.Add(time.Hour),
		},
	}

	delay := ApplyHysteresis(rule, types.StatusCritical, now)

	assert.Equal(t, 90*time.Minute, delay)
}

func TestApplyHysteresis_DownCurrentUsedWhenDescending(t *testing.T) {
	now := time.Now()
	rule := &types.Rule{
		Status: types.StatusCritical,
		Delay:  types.Hysteresis{UpDuration: time.Minute, DownDuration: 10 * time.Second, Multiplier: 1},
	}

	delay := ApplyHysteresis(rule, types.StatusWarning, now)

	assert.Equal(t, 10*time.Second, delay)
}

func TestCreateTransitionEvent_FieldsAndEventIDIncrement(t *testing.T) {
	now := time.Now()
	rule := &types.Rule{
		AlarmID: 7, Name: "load", Chart: "system.load", Family: "load",
		Value: 5, OldValue: 1, Status: types.StatusClear,
		LastStatusChange: now.Add(-time.Hour),
	}

	ev := CreateTransitionEvent(rule, types.StatusWarning, now, 30*time.Second)

	assert.Equal(t, uint32(0), ev.AlarmEventID)
	assert.Equal(t, uint32(1), rule.NextEventID.Load())
	assert.Equal(t, types.StatusClear, ev.OldStatus)
	assert.Equal(t, types.StatusWarning, ev.NewStatus)
	assert.Equal(t, time.Hour, ev.Duration)
	assert.Equal(t, time.Duration(0), ev.NonClearDuration, "first excursion out of clear has no prior non-clear time")
	assert.Equal(t, 30*time.Second, ev.Delay)
}

func TestCreateTransitionEvent_NonClearDurationAccumulatesAcrossEscalation(t *testing.T) {
	t0 := time.Now()
	rule := &types.Rule{AlarmID: 1, Name: "a", Status: types.StatusClear}

	warnEv := CreateTransitionEvent(rule, types.StatusWarning, t0, 0)
	assert.Equal(t, time.Duration(0), warnEv.NonClearDuration)
	ApplyTransition(rule, types.StatusWarning, t0)

	t1 := t0.Add(5 * time.Minute)
	critEv := CreateTransitionEvent(rule, types.StatusCritical, t1, 0)
	ApplyTransition(rule, types.StatusCritical, t1)

	assert.Equal(t, 5*time.Minute, critEv.NonClearDuration, "non-clear duration carries across a Warning->Critical step, not reset")

	t2 := t1.Add(2 * time.Minute)
	clearEv := CreateTransitionEvent(rule, types.StatusClear, t2, 0)
	ApplyTransition(rule, types.StatusClear, t2)

	assert.Equal(t, 7*time.Minute, clearEv.NonClearDuration, "clear event reports the full problem duration")
	assert.True(t, rule.NonClearSince.IsZero(), "returning to clear resets the non-clear marker")
}

func TestApplyTransition_UpdatesStatusBookkeeping(t *testing.T) {
	now := time.Now()
	rule := &types.Rule{Status: types.StatusClear, OldStatus: types.StatusClear}

	ApplyTransition(rule, types.StatusWarning, now)

	assert.Equal(t, types.StatusWarning, rule.Status)
	assert.Equal(t, types.StatusClear, rule.OldStatus)
	assert.Equal(t, now, rule.LastStatusChange)
}
