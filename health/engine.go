package health

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/netdata/health-engine/metricquery"
	"github.com/netdata/health-engine/silence"
	"github.com/netdata/health-engine/types"
)

// EngineConfig holds the scheduling parameters spec.md §9.3 exposes
// under the health: config block.
type EngineConfig struct {
	// MinRunEvery bounds how often the evaluation loop wakes up,
	// matching netdata.conf's "run at least every seconds".
	MinRunEvery time.Duration

	// HibernationDelay is how long evaluation is postponed on every
	// host once a suspend/resume is detected, matching "postpone
	// alarms during hibernation for seconds".
	HibernationDelay time.Duration

	// SuspensionThreshold is how far the wall-clock gap between two
	// ticks must exceed MinRunEvery before a suspend/resume is
	// declared. Zero or less disables detection.
	SuspensionThreshold time.Duration
}

// HostState bundles one host's rule registry and event log — the
// per-host state the engine and dispatcher walk each iteration
// (spec.md §3).
type HostState struct {
	Host     *types.Host
	Registry *Registry
	Log      *EventLog
}

// Engine is the per-process evaluation loop and scheduler (spec.md
// §4.1–§4.10, component C9). Grounded on
// original_source/health/health.c's health_main: it owns no host
// state directly — hosts are registered via AddHost — and on each
// tick walks every enabled, non-hibernating host's rules through the
// gate, the state machine, the repeating emitter and the dispatcher.
type Engine struct {
	mtx   sync.RWMutex
	hosts map[string]*HostState

	querier    metricquery.Querier
	silencer   *silence.Engine
	dispatcher *Dispatcher
	metrics    *Metrics

	cfg    EngineConfig
	suspend *SuspensionDetector
	logger  *slog.Logger
}

// NewEngine wires the querier, silencer engine and dispatcher the
// evaluation loop needs. metrics may be nil (no Prometheus
// instrumentation).
func NewEngine(cfg EngineConfig, querier metricquery.Querier, silencer *silence.Engine, dispatcher *Dispatcher, metrics *Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		hosts:      make(map[string]*HostState),
		querier:    querier,
		silencer:   silencer,
		dispatcher: dispatcher,
		metrics:    metrics,
		cfg:        cfg,
		suspend:    NewSuspensionDetector(cfg.MinRunEvery, cfg.SuspensionThreshold),
		logger:     logger.With("component", "engine"),
	}
}

// AddHost registers a host for evaluation, creating its rule registry
// and bounded event log.
func (e *Engine) AddHost(host *types.Host, maxLogEntries int) *HostState {
	hs := &HostState{Host: host, Registry: NewRegistry(), Log: NewEventLog(maxLogEntries)}

	e.mtx.Lock()
	e.hosts[host.Hostname] = hs
	e.mtx.Unlock()

	return hs
}

// Host returns the registered state for hostname, or nil.
func (e *Engine) Host(hostname string) *HostState {
	e.mtx.RLock()
	defer e.mtx.RUnlock()
	return e.hosts[hostname]
}

func (e *Engine) snapshotHosts() []*HostState {
	e.mtx.RLock()
	defer e.mtx.RUnlock()
	out := make([]*HostState, 0, len(e.hosts))
	for _, hs := range e.hosts {
		out = append(out, hs)
	}
	return out
}

// Run blocks, evaluating on an adaptive schedule until ctx is
// canceled: each tick wakes at the earliest of cfg.MinRunEvery or any
// rule's own next_update (spec.md §4.11), rather than a flat period,
// so a rule whose update_every is shorter than MinRunEvery is still
// evaluated on time. Grounded on alertmanager/inhibit.Inhibitor.Run's
// shape: a simple blocking actor meant to be registered with an
// oklog/run Group by the caller (cmd/healthd/main.go), rather than
// building the run.Group itself.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.MinRunEvery
	if interval <= 0 {
		interval = time.Second
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	e.logger.Info("health engine started", "run_every", interval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("health engine stopped")
			return ctx.Err()
		case now := <-timer.C:
			nextRun := e.tick(ctx, now)
			sleep := nextRun.Sub(time.Now())
			if sleep <= 0 {
				sleep = time.Millisecond
			}
			timer.Reset(sleep)
		}
	}
}

// tick runs one evaluation pass over every registered host and returns
// the earliest instant any rule needs to be looked at again (spec.md
// §4.11 step 1/2: "next_run = now + min_run_every", then lowered to
// "min(next_run, next_update)" per rule). Run sleeps until this
// instant instead of a fixed period, so a rule whose update_every is
// shorter than min_run_every is still evaluated on its own cadence.
func (e *Engine) tick(ctx context.Context, now time.Time) time.Time {
	nextRun := now.Add(e.cfg.MinRunEvery)

	if e.suspend.Check(now) {
		e.logger.Warn("suspend/resume detected, postponing alarms", "delay", e.cfg.HibernationDelay)
		for _, hs := range e.snapshotHosts() {
			hs.Host.HealthDelayUpTo = now.Add(e.cfg.HibernationDelay)
		}
		return nextRun
	}

	for _, hs := range e.snapshotHosts() {
		e.tickHost(ctx, hs, now, &nextRun)
	}

	return nextRun
}

func (e *Engine) tickHost(ctx context.Context, hs *HostState, now time.Time, nextRun *time.Time) {
	host := hs.Host
	if !host.HealthEnabled {
		return
	}
	if now.Before(host.HealthDelayUpTo) {
		return
	}

	for _, rule := range hs.Registry.Snapshot() {
		e.evaluateRule(hs, rule, now, nextRun)
	}

	e.dispatcher.Process(ctx, host, hs.Log, hs.Registry, now)

	if e.metrics != nil {
		e.metrics.ObserveHost(hs)
	}
}

// evaluateRule runs the gate, lookup/calculation, warning/critical
// evaluation, hysteresis and transition/repeat steps for one rule
// (spec.md §4.1–§4.6), lowering nextRun to this rule's next_update
// when it is earlier than the current candidate.
func (e *Engine) evaluateRule(hs *HostState, rule *types.Rule, now time.Time, nextRun *time.Time) {
	if e.silencer.UpdateDisabledSilenced(hs.Host.Hostname, rule) {
		return
	}

	if !Runnable(e.querier, rule, now, nextRun) {
		rule.Flags &^= types.FlagRunnable
		return
	}
	rule.Flags |= types.FlagRunnable

	e.updateValue(rule, now)

	warnStatus := e.evaluateExpression(rule, rule.Warning, types.FlagWarnError)
	critStatus := e.evaluateExpression(rule, rule.Critical, types.FlagCritError)

	newStatus := DeriveStatus(warnStatus, critStatus)
	rule.LastUpdated = now
	rule.NextUpdate = now.Add(rule.UpdateEvery)
	if nextRun.After(rule.NextUpdate) {
		*nextRun = rule.NextUpdate
	}

	if newStatus != rule.Status {
		// health.c:842 guards alarm-entry creation on
		// !rrdcalc_isrepeating(rc): a repeating rule's transitions are
		// never logged/dispatched here, only its own cadence (§4.6)
		// ever notifies, so it can't double-notify via both paths.
		delay := ApplyHysteresis(rule, newStatus, now)
		if !rule.Repeat.IsRepeating() {
			ev := CreateTransitionEvent(rule, newStatus, now, delay)
			hs.Log.Append(ev)
		}
		ApplyTransition(rule, newStatus, now)
		return
	}

	if _, due := DueForRepeat(rule, now); due {
		ev := CreateRepeatEvent(rule, now)
		rule.Repeat.LastRepeat = now
		e.dispatcher.DispatchRepeat(context.Background(), hs.Host, hs.Registry, ev, now)
	}
}

// updateValue fetches rule.Value either from the metric store (a
// db-lookup rule) or from the calculation expression (spec.md §4.1,
// §4.3).
func (e *Engine) updateValue(rule *types.Rule, now time.Time) {
	rule.OldValue = rule.Value

	if rule.DB.Enabled {
		res, err := e.querier.Query(rule.Chart, rule.DB.Dimensions, 1, rule.DB.After, rule.DB.Before, metricquery.GroupMethod(rule.DB.Group), rule.DB.Options)
		if err != nil || res.Status != metricquery.StatusOK {
			rule.Flags |= types.FlagDbError
			rule.Value = math.NaN()
			return
		}
		rule.Flags &^= types.FlagDbError
		if res.ValueIsNull {
			rule.Flags |= types.FlagDbNan
			rule.Value = math.NaN()
			return
		}
		rule.Flags &^= types.FlagDbNan
		rule.Value = res.Value
		return
	}

	if rule.Calculation != nil {
		if !rule.Calculation.Evaluate() {
			rule.Flags |= types.FlagCalcError
			rule.Value = math.NaN()
			return
		}
		rule.Flags &^= types.FlagCalcError
		rule.Value = rule.Calculation.Result()
	}
}

// evaluateExpression evaluates expr (may be nil, meaning the rule
// carries no threshold at this severity) and maps its result to a
// ValueStatus, setting errFlag on failure (spec.md §4.3).
func (e *Engine) evaluateExpression(rule *types.Rule, expr types.Expression, errFlag types.RuleFlags) types.ValueStatus {
	if expr == nil {
		return types.ValueUndefined
	}
	if !expr.Evaluate() {
		rule.Flags |= errFlag
		return types.ValueUndefined
	}
	rule.Flags &^= errFlag
	return types.ValueToStatus(expr.Result())
}
