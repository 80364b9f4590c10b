// Package metricquerytest provides an in-memory fake of
// metricquery.Querier for tests.
package metricquerytest

import (
	"time"

	"github.com/netdata/health-engine/metricquery"
)

type chart struct {
	result   metricquery.Result
	err      error
	first    time.Time
	last     time.Time
	obsolete bool
	disabled bool
	samples  int
}

// Fake is a settable metricquery.Querier.
type Fake struct {
	charts map[string]*chart
}

func New() *Fake {
	return &Fake{charts: map[string]*chart{}}
}

func (f *Fake) chartFor(name string) *chart {
	c, ok := f.charts[name]
	if !ok {
		c = &chart{}
		f.charts[name] = c
	}
	return c
}

// SetChart configures the sample window and flags for a chart.
func (f *Fake) SetChart(name string, first, last time.Time, samples int) {
	c := f.chartFor(name)
	c.first, c.last, c.samples = first, last, samples
}

// SetObsolete/SetDisabled flag a chart as obsolete/disabled.
func (f *Fake) SetObsolete(name string, v bool) { f.chartFor(name).obsolete = v }
func (f *Fake) SetDisabled(name string, v bool) { f.chartFor(name).disabled = v }

// SetResult configures the value a Query call against chart returns.
func (f *Fake) SetResult(name string, r metricquery.Result) { f.chartFor(name).result = r }

// SetErr forces Query against chart to fail.
func (f *Fake) SetErr(name string, err error) { f.chartFor(name).err = err }

func (f *Fake) Query(chartName, dims string, points int, after, before time.Duration, group metricquery.GroupMethod, options uint32) (metricquery.Result, error) {
	c := f.chartFor(chartName)
	if c.err != nil {
		return metricquery.Result{}, c.err
	}
	return c.result, nil
}

func (f *Fake) FirstSampleTime(name string) time.Time { return f.chartFor(name).first }
func (f *Fake) LastSampleTime(name string) time.Time  { return f.chartFor(name).last }
func (f *Fake) ChartObsolete(name string) bool         { return f.chartFor(name).obsolete }
func (f *Fake) ChartDisabled(name string) bool         { return f.chartFor(name).disabled }
func (f *Fake) ChartSampleCount(name string) int       { return f.chartFor(name).samples }
