package health

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/netdata/health-engine/types"
)

func TestMetrics_ObserveHostSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	hs := &HostState{
		Host:     &types.Host{Hostname: "box"},
		Registry: NewRegistry(),
		Log:      NewEventLog(100),
	}
	hs.Registry.Add(&types.Rule{AlarmID: 1, Status: types.StatusWarning})
	hs.Registry.Add(&types.Rule{AlarmID: 2, Status: types.StatusWarning})
	hs.Log.Append(&types.Event{AlarmID: 1})

	m.ObserveHost(hs)

	metricFamilies, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)
}
