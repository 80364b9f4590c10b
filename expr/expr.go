// Package expr adapts the external expression evaluator (spec.md §6,
// component C3) to the types.Expression contract consumed by rules.
// The expression language/parser itself is out of scope: this package
// only wraps whatever compiled expression object the rule-file loader
// produced, capturing its numeric result and error text defensively.
package expr

import (
	"fmt"

	"github.com/netdata/health-engine/types"
)

// External is the out-of-scope compiled expression object (spec.md
// §6): "evaluate() → ok/err" with an observable numeric result and
// human-readable error.
type External interface {
	Evaluate() bool
	Result() float64
	ErrorMsg() string
	Source() string
	ParsedAs() string
}

// Adapter wraps an External evaluator, guaranteeing that a panicking
// or misbehaving third-party evaluator never takes down the
// evaluation loop (spec.md §7: a single rule's failure must never be
// fatal).
type Adapter struct {
	raw      External
	panicMsg string
}

// New returns a types.Expression backed by raw.
func New(raw External) *Adapter {
	return &Adapter{raw: raw}
}

var _ types.Expression = (*Adapter)(nil)

// Evaluate runs the underlying expression, recovering from panics in
// third-party evaluator code and surfacing them as a failed
// evaluation instead.
func (a *Adapter) Evaluate() (ok bool) {
	if a.raw == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			a.panicMsg = fmt.Sprintf("expression evaluator panicked: %v", r)
		}
	}()
	a.panicMsg = ""
	return a.raw.Evaluate()
}

func (a *Adapter) Result() float64 {
	if a.raw == nil {
		return 0
	}
	return a.raw.Result()
}

func (a *Adapter) ErrorMsg() string {
	if a.panicMsg != "" {
		return a.panicMsg
	}
	if a.raw == nil {
		return "no expression"
	}
	return a.raw.ErrorMsg()
}

func (a *Adapter) Source() string {
	if a.raw == nil {
		return ""
	}
	return a.raw.Source()
}

func (a *Adapter) ParsedAs() string {
	if a.raw == nil {
		return ""
	}
	return a.raw.ParsedAs()
}
