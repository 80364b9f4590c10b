package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/netdata/health-engine/metricquery/metricquerytest"
	"github.com/netdata/health-engine/types"
)

func baseRule() *types.Rule {
	return &types.Rule{
		Chart:       "system.cpu",
		ChartBound:  true,
		UpdateEvery: 10 * time.Second,
	}
}

func TestRunnable_NotBound(t *testing.T) {
	now := time.Now()
	next := now.Add(time.Hour)
	q := metricquerytest.New()
	rule := baseRule()
	rule.ChartBound = false

	assert.False(t, Runnable(q, rule, now, &next))
}

func TestRunnable_NextUpdateInFuture(t *testing.T) {
	now := time.Now()
	next := now.Add(time.Hour)
	q := metricquerytest.New()
	q.SetChart("system.cpu", now.Add(-time.Hour), now, 10)
	rule := baseRule()
	rule.NextUpdate = now.Add(5 * time.Second)

	assert.False(t, Runnable(q, rule, now, &next))
	assert.Equal(t, rule.NextUpdate, next)
}

func TestRunnable_ZeroUpdateEvery(t *testing.T) {
	now := time.Now()
	next := now.Add(time.Hour)
	q := metricquerytest.New()
	rule := baseRule()
	rule.UpdateEvery = 0

	assert.False(t, Runnable(q, rule, now, &next))
}

func TestRunnable_ChartObsoleteOrDisabled(t *testing.T) {
	now := time.Now()
	q := metricquerytest.New()
	q.SetChart("system.cpu", now.Add(-time.Hour), now, 10)
	q.SetObsolete("system.cpu", true)
	rule := baseRule()
	next := now.Add(time.Hour)

	assert.False(t, Runnable(q, rule, now, &next))

	q.SetObsolete("system.cpu", false)
	q.SetDisabled("system.cpu", true)
	assert.False(t, Runnable(q, rule, now, &next))
}

func TestRunnable_TooFewSamples(t *testing.T) {
	now := time.Now()
	q := metricquerytest.New()
	q.SetChart("system.cpu", now.Add(-time.Hour), now, 1)
	rule := baseRule()
	next := now.Add(time.Hour)

	assert.False(t, Runnable(q, rule, now, &next))
}

func TestRunnable_OK(t *testing.T) {
	now := time.Now()
	q := metricquerytest.New()
	q.SetChart("system.cpu", now.Add(-time.Hour), now, 10)
	rule := baseRule()
	next := now.Add(time.Hour)

	assert.True(t, Runnable(q, rule, now, &next))
}

func TestRunnable_DbLookupOutOfRange(t *testing.T) {
	now := time.Now()
	q := metricquerytest.New()
	// Data only goes back 5 seconds, but the rule wants a lookup
	// window starting 1 hour ago.
	q.SetChart("system.cpu", now.Add(-5*time.Second), now, 10)
	rule := baseRule()
	rule.DB.Enabled = true
	rule.DB.After = -time.Hour
	rule.DB.Before = 0
	next := now.Add(time.Hour)

	assert.False(t, Runnable(q, rule, now, &next))
}

func TestRunnable_DbLookupInRange(t *testing.T) {
	now := time.Now()
	q := metricquerytest.New()
	q.SetChart("system.cpu", now.Add(-time.Hour), now, 10)
	rule := baseRule()
	rule.DB.Enabled = true
	rule.DB.After = -30 * time.Second
	rule.DB.Before = 0
	next := now.Add(time.Hour)

	assert.True(t, Runnable(q, rule, now, &next))
}
