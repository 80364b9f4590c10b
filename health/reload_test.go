package health

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netdata/health-engine/silence"
	"github.com/netdata/health-engine/types"
)

type fakeRuleSource struct {
	rules []*types.Rule
	err   error
}

func (f *fakeRuleSource) LoadRules(string) ([]*types.Rule, error) {
	return f.rules, f.err
}

func TestReload_ReplacesRuleSetAndMarksLogUpdated(t *testing.T) {
	registry := NewRegistry()
	registry.Add(&types.Rule{AlarmID: 1, Name: "stale"})

	log := NewEventLog(100)
	log.Append(&types.Event{AlarmID: 1, NewStatus: types.StatusWarning})

	sil := silence.NewEngine()
	source := &fakeRuleSource{rules: []*types.Rule{{AlarmID: 2, Name: "fresh"}}}

	c := NewReloadCoordinator(nil)
	err := c.Reload("box", registry, log, sil, source)
	require.NoError(t, err)

	assert.Nil(t, registry.Get(1), "stale rule must be dropped")
	fresh := registry.Get(2)
	require.NotNil(t, fresh)
	assert.Equal(t, types.StatusUninitialized, fresh.Status)

	var flags types.EventFlags
	log.Scan(0, func(e *types.Event) bool {
		flags = e.Flags
		return true
	})
	assert.True(t, flags.Has(types.EventUpdated))
}

func TestReload_LoadFailureKeepsPreviousGeneration(t *testing.T) {
	registry := NewRegistry()
	registry.Add(&types.Rule{AlarmID: 1, Name: "kept"})

	sil := silence.NewEngine()
	source := &fakeRuleSource{err: errors.New("config directory unreadable")}

	c := NewReloadCoordinator(nil)
	err := c.Reload("box", registry, NewEventLog(100), sil, source)

	require.Error(t, err)
	assert.NotNil(t, registry.Get(1), "previous rules must survive a failed reload")
}
