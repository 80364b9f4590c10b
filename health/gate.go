// Package health implements the evaluation loop and alarm state
// machine: the runnability gate, the status state machine, the event
// log, the notification dispatcher, the repeating-alarm emitter, the
// reload coordinator and the main scheduling loop (spec.md §4, §5,
// §9). Grounded throughout on original_source/health/health.c.
package health

import (
	"time"

	"github.com/netdata/health-engine/metricquery"
	"github.com/netdata/health-engine/types"
)

// Runnable implements the runnability gate (spec.md §4.1, component
// C4; grounded on health.c's rrdcalc_isrunnable). nextRun is updated
// in place to the earliest next-eligible instant across all rules
// evaluated this iteration.
func Runnable(q metricquery.Querier, rule *types.Rule, now time.Time, nextRun *time.Time) bool {
	if !rule.ChartBound {
		return false
	}

	if rule.NextUpdate.After(now) {
		if nextRun.After(rule.NextUpdate) {
			*nextRun = rule.NextUpdate
		}
		return false
	}

	if rule.UpdateEvery <= 0 {
		return false
	}

	if q.ChartObsolete(rule.Chart) {
		return false
	}

	if q.ChartDisabled(rule.Chart) {
		return false
	}

	if q.ChartSampleCount(rule.Chart) < 2 {
		return false
	}

	first := q.FirstSampleTime(rule.Chart)
	last := q.LastSampleTime(rule.Chart)

	if now.Add(rule.UpdateEvery).Before(first) {
		return false
	}

	if rule.DB.Enabled {
		needed := now.Add(rule.DB.Before).Add(rule.DB.After)

		if needed.Add(rule.UpdateEvery).Before(first) || needed.Add(-rule.UpdateEvery).After(last) {
			return false
		}
	}

	return true
}
