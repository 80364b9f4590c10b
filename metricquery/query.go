// Package metricquery declares the contract of the metric storage
// engine (spec.md §6): "consumed via a query interface returning
// numeric values over time ranges." It is an external collaborator —
// this package holds only the interface and a Result value, plus
// (in metricquerytest) an in-memory fake for tests.
package metricquery

import "time"

// Status is the outcome of a Query call. Only StatusOK is a success;
// any other value causes the caller to record DbError and treat the
// value as NaN (spec.md §4.1, §7).
type Status int

const (
	StatusOK Status = 200
)

// Result is the outcome of one metric query.
type Result struct {
	Value       float64
	DBAfter     time.Time
	DBBefore    time.Time
	ValueIsNull bool
	Status      Status
}

// GroupMethod names the aggregation applied across the lookup window.
type GroupMethod string

const (
	GroupAverage GroupMethod = "average"
	GroupSum     GroupMethod = "sum"
	GroupMin     GroupMethod = "min"
	GroupMax     GroupMethod = "max"
)

// Querier is the out-of-scope chart/dimension database (spec.md §6).
type Querier interface {
	// Query evaluates chart/dims over the relative window
	// [after, before] (both <= 0, relative to the store's current
	// time) and returns a single aggregated point.
	Query(chart, dims string, points int, after, before time.Duration, group GroupMethod, options uint32) (Result, error)

	// FirstSampleTime and LastSampleTime bound the chart's retained
	// data, used by the runnability gate (spec.md §4.1).
	FirstSampleTime(chart string) time.Time
	LastSampleTime(chart string) time.Time

	// ChartObsolete and ChartDisabled and ChartSampleCount report the
	// chart flags the gate needs.
	ChartObsolete(chart string) bool
	ChartDisabled(chart string) bool
	ChartSampleCount(chart string) int
}
