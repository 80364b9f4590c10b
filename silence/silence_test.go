package silence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/health-engine/types"
)

func TestCheckSilenced_FirstMatchWins(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{
		Type: types.SilenceDisableAlarms,
		Silencers: []types.Silencer{
			{Alarm: "cpu_*"},
			{Alarm: "*"},
		},
	})

	require.Equal(t, types.SilenceDisableAlarms, e.CheckSilenced(Subject{Alarm: "cpu_usage"}))
	require.Equal(t, types.SilenceDisableAlarms, e.CheckSilenced(Subject{Alarm: "mem_usage"}))
}

func TestCheckSilenced_NoMatch(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{
		Type:      types.SilenceDisableAlarms,
		Silencers: []types.Silencer{{Alarm: "cpu_*"}},
	})

	assert.Equal(t, types.SilenceNone, e.CheckSilenced(Subject{Alarm: "mem_usage"}))
}

func TestCheckSilenced_EmptyPatternIsWildcard(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{
		Type:      types.SilenceNotifications,
		Silencers: []types.Silencer{{Chart: "system.cpu"}},
	})

	// Alarm pattern absent: any alarm name matches as long as chart matches.
	assert.Equal(t, types.SilenceNotifications, e.CheckSilenced(Subject{Alarm: "anything", Chart: "system.cpu"}))
	assert.Equal(t, types.SilenceNone, e.CheckSilenced(Subject{Alarm: "anything", Chart: "system.ram"}))
}

func TestCheckSilenced_MatchWithStypeNoneIsInert(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{
		Type:      types.SilenceNone,
		Silencers: []types.Silencer{{Alarm: "*"}},
	})

	assert.Equal(t, types.SilenceNone, e.CheckSilenced(Subject{Alarm: "cpu_usage"}))
}

func TestUpdateDisabledSilenced_AllAlarmsAppliesDirectly(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{Type: types.SilenceDisableAlarms, AllAlarms: true})

	rule := &types.Rule{Name: "cpu_usage"}
	disabled := e.UpdateDisabledSilenced("host1", rule)

	assert.True(t, disabled)
	assert.True(t, rule.Flags.Has(types.FlagDisabled))
}

func TestUpdateDisabledSilenced_PerRuleMatch(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{
		Type:      types.SilenceNotifications,
		Silencers: []types.Silencer{{Alarm: "cpu_*"}},
	})

	rule := &types.Rule{Name: "cpu_usage"}
	disabled := e.UpdateDisabledSilenced("host1", rule)

	assert.False(t, disabled)
	assert.True(t, rule.Flags.Has(types.FlagSilenced))
	assert.False(t, rule.Flags.Has(types.FlagDisabled))
}

func TestUpdateDisabledSilenced_ClearsStaleFlags(t *testing.T) {
	e := NewEngine()
	e.Replace(types.Silencers{}) // empty ruleset, nothing matches

	rule := &types.Rule{Name: "cpu_usage", Flags: types.FlagDisabled | types.FlagSilenced}
	disabled := e.UpdateDisabledSilenced("host1", rule)

	assert.False(t, disabled)
	assert.False(t, rule.Flags.Has(types.FlagDisabled))
	assert.False(t, rule.Flags.Has(types.FlagSilenced))
}
