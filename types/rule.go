package types

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// RuleFlags is a bitset of per-rule evaluation state, set only by the
// evaluation worker.
type RuleFlags uint32

const (
	FlagRunnable RuleFlags = 1 << iota
	FlagDisabled
	FlagSilenced
	FlagDbError
	FlagDbNan
	FlagCalcError
	FlagWarnError
	FlagCritError
	FlagNoClearNotification
)

func (f RuleFlags) Has(bit RuleFlags) bool { return f&bit != 0 }

// DBLookup describes the relative-time database lookup a rule may
// perform before evaluating its expressions.
type DBLookup struct {
	Enabled    bool
	After      time.Duration // <= 0, relative to now
	Before     time.Duration // <= 0, relative to now
	Dimensions string
	Group      string
	Options    uint32
}

// Hysteresis holds the configured and working state of a rule's
// notification delay (spec.md §4.4).
type Hysteresis struct {
	UpDuration     time.Duration
	DownDuration   time.Duration
	Multiplier     float64
	MaxDuration    time.Duration
	UpCurrent      time.Duration
	DownCurrent    time.Duration
	Last           time.Duration
	UpToTimestamp  time.Time
}

// Repeat holds the repeating-alarm cadence configuration (spec.md §4.6).
type Repeat struct {
	WarnEvery  time.Duration
	CritEvery  time.Duration
	LastRepeat time.Time
}

// IsRepeating reports whether the rule re-notifies on a cadence while
// in WARNING or CRITICAL, rather than only on transition.
func (r Repeat) IsRepeating() bool {
	return r.WarnEvery > 0 || r.CritEvery > 0
}

// Rule is one alarm rule bound to a chart (spec.md §3, Rule (R)).
type Rule struct {
	AlarmID     uint32
	NextEventID atomic.Uint32
	Name        string
	Chart       string
	Context     string
	Family      string

	DB         DBLookup
	Calculation Expression
	Warning     Expression
	Critical    Expression

	UpdateEvery time.Duration
	NextUpdate  time.Time

	Delay  Hysteresis
	Repeat Repeat

	Status           Status
	OldStatus        Status
	Value            float64
	OldValue         float64
	LastStatusChange time.Time
	LastUpdated      time.Time

	// NonClearSince is when the rule most recently left StatusClear; it
	// is the zero Time while the rule is clear. Transition events derive
	// non_clear_duration from it, so that duration accumulates across a
	// WARNING->CRITICAL escalation rather than resetting at each step.
	NonClearSince time.Time

	Exec      string
	Recipient string
	Source    string
	Units     string
	Info      string

	Flags RuleFlags

	// ChartBound is the only one of these chart fields the gate reads
	// (spec.md §4.1); it takes obsolete/disabled/sample state from the
	// external metric store (spec.md §6), not from ChartObsolete,
	// ChartDisabled, ChartSamples, ChartFirstT or ChartLastT.
	ChartBound    bool
	ChartObsolete bool
	ChartDisabled bool
	ChartSamples  int
	ChartFirstT   time.Time
	ChartLastT    time.Time
	// ChartCollected is true once the chart has produced at least
	// one sample; used only for the notifier's WARNING/CRITICAL counts
	// (spec.md §4.8), matching health.c's last_collected_time.tv_sec.
	ChartCollected bool
}

// Expression is the capability contract for a compiled expression
// object (spec.md §6). It is implemented by the expr package's
// adapter and by test fakes.
type Expression interface {
	Evaluate() bool
	Result() float64
	ErrorMsg() string
	Source() string
	ParsedAs() string
}

// ValueToStatus implements spec.md §4.3's NaN/zero/else mapping.
func ValueToStatus(v float64) ValueStatus {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ValueUndefined
	}
	if v == 0 {
		return ValueClear
	}
	return ValueRaised
}
