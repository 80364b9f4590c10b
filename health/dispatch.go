package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/netdata/health-engine/types"
)

// Notifier is the capability the dispatcher invokes to hand an event
// to the external notifier process (spec.md §6, §4.8). Implemented by
// notifier.Exec in production and by fakes in tests.
type Notifier interface {
	// Notify spawns the notifier with the given argv-equivalent
	// context and returns its exit code, or an error if the process
	// could not even be started (spec.md §7: spawn failure still sets
	// ExecRun, never ExecFailed).
	Notify(ctx context.Context, req NotifyRequest) (exitCode int, err error)
}

// NotifyRequest carries everything execute() hands to the notifier's
// argv (spec.md §4.8).
type NotifyRequest struct {
	Exec             string
	Recipient        string
	RegistryHostname string
	Event            *types.Event
	WarnCount        int
	CritCount        int
	ExpressionSource string
	ExpressionError  string
}

// RuleCounter gives the dispatcher read access to a host's current
// rule set, for the WARNING/CRITICAL counts in the notifier argv
// (spec.md §4.8) without coupling the dispatcher to the registry's
// concrete type.
type RuleCounter interface {
	// ForEachCollectedRule calls fn for every rule whose chart has
	// been collected at least once (health.c:
	// rc->rrdset->last_collected_time.tv_sec != 0).
	ForEachCollectedRule(fn func(rule *types.Rule))
}

// Dispatcher drains unprocessed events from an EventLog, dedups them
// against the previous event of the same alarm, and spawns the
// notifier (spec.md §4.8, component C7). Grounded on health.c's
// health_alarm_log_process/health_alarm_execute/
// health_process_notifications.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  *Metrics
}

// NewDispatcher returns a Dispatcher that spawns notifications via n.
func NewDispatcher(n Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifier: n, logger: logger.With("component", "dispatcher")}
}

// SetMetrics attaches Prometheus instrumentation. Optional: a
// Dispatcher with no metrics attached simply skips recording.
func (d *Dispatcher) SetMetrics(m *Metrics) {
	d.metrics = m
}

// Process implements spec.md §4.8's log_process: it scans host's
// event log for unprocessed, non-repeat events whose hysteresis delay
// has elapsed, dispatches them, advances the host's processed cursor,
// and trims the log if it has grown past its bound.
//
// The read lock used for scanning is released (via EventLog.Scan's
// internal locking) before Trim acquires the write lock — per spec.md
// §5's lock discipline, the notifier itself is never invoked while
// any log lock is held, since Scan's callback only queues candidates;
// the actual spawn happens after Scan returns.
func (d *Dispatcher) Process(ctx context.Context, host *types.Host, log *EventLog, counter RuleCounter, now time.Time) {
	firstWaiting := log.Head()

	var candidates []*types.Event
	log.Scan(host.HealthLastProcessedID, func(e *types.Event) bool {
		if e.IsRepeat {
			return true
		}
		if e.Flags.Has(types.EventProcessed) || e.Flags.Has(types.EventUpdated) {
			return true
		}
		if e.UniqueID < firstWaiting {
			firstWaiting = e.UniqueID
		}
		// delay_up_to_timestamp = the event's creation instant plus
		// the hysteresis delay recorded on it at creation time
		// (spec.md §4.4/§4.5).
		if !now.Before(e.When.Add(e.Delay)) {
			candidates = append(candidates, e)
		}
		return true
	})

	host.HealthLastProcessedID = firstWaiting

	for _, e := range candidates {
		d.execute(ctx, host, log, counter, e, now)
	}

	if log.Count() > log.max {
		log.Trim()
		if d.metrics != nil {
			d.metrics.trims.Inc()
		}
	}
}

// execute implements spec.md §4.8's execute(host, event). Persisting
// an event is a no-op in this design — there is no external storage
// backend in scope (spec.md §7: "Persist and return... a no-op if
// storage does not exist") — so "persist" below just means the flags
// already mutated on the *Event are visible to future scans, which
// they are immediately, since the EventLog holds the same pointer.
func (d *Dispatcher) execute(ctx context.Context, host *types.Host, log *EventLog, counter RuleCounter, e *types.Event, now time.Time) {
	e.Flags |= types.EventProcessed

	if e.NewStatus < types.StatusClear {
		return
	}

	if e.NewStatus <= types.StatusClear && e.Flags.Has(types.EventNoClearNotification) {
		return
	}

	if !e.Flags.Has(types.EventNoClearNotification) {
		var prevRun *types.Event
		log.ScanOlderThan(e.UniqueID, func(t *types.Event) bool {
			if t.AlarmID == e.AlarmID && t.Flags.Has(types.EventExecRun) {
				prevRun = t
				return false
			}
			return true
		})

		if prevRun != nil {
			if prevRun.NewStatus == e.NewStatus {
				d.logger.Debug("not sending again notification for same status",
					"chart", e.Chart, "name", e.Name, "status", e.NewStatus)
				d.recordSuppressed()
				return
			}
		} else if e.NewStatus == types.StatusClear {
			d.logger.Debug("not sending notification for first-ever CLEAR",
				"chart", e.Chart, "name", e.Name)
			d.recordSuppressed()
			return
		}
	}

	if e.Flags.Has(types.EventSilenced) {
		d.logger.Info("not sending notification, silenced via control API",
			"chart", e.Chart, "name", e.Name, "status", e.NewStatus)
		d.recordSuppressed()
		return
	}

	d.notify(ctx, host, counter, e, now)
}

func (d *Dispatcher) recordSuppressed() {
	if d.metrics != nil {
		d.metrics.notifySuppresed.Inc()
	}
}

// DispatchRepeat sends a repeating-alarm tick straight to the
// notifier, bypassing the dedup/log bookkeeping execute applies to
// stored transition events: repeat events are never appended to the
// EventLog (spec.md §4.6, invariant P5), so there is no prior-run scan
// to perform and nothing to mark Processed.
func (d *Dispatcher) DispatchRepeat(ctx context.Context, host *types.Host, counter RuleCounter, e *types.Event, now time.Time) {
	if e.Flags.Has(types.EventSilenced) {
		d.logger.Info("not sending repeat notification, silenced via control API",
			"chart", e.Chart, "name", e.Name, "status", e.NewStatus)
		return
	}
	d.notify(ctx, host, counter, e, now)
}

// notify resolves the exec/recipient override, gathers the
// WARNING/CRITICAL counts and this alarm's expression info, and
// invokes the notifier (spec.md §4.8).
func (d *Dispatcher) notify(ctx context.Context, host *types.Host, counter RuleCounter, e *types.Event, now time.Time) {
	exec := e.Exec
	if exec == "" {
		exec = host.DefaultExec
	}
	recipient := e.Recipient
	if recipient == "" {
		recipient = host.DefaultRecipient
	}

	warnCount, critCount := 0, 0
	var exprSource, exprError string
	if counter != nil {
		counter.ForEachCollectedRule(func(rule *types.Rule) {
			switch rule.Status {
			case types.StatusWarning:
				warnCount++
				if rule.AlarmID == e.AlarmID {
					exprSource, exprError = exprInfo(rule.Warning)
				}
			case types.StatusCritical:
				critCount++
				if rule.AlarmID == e.AlarmID {
					exprSource, exprError = exprInfo(rule.Critical)
				}
			case types.StatusClear:
				if rule.AlarmID == e.AlarmID {
					exprSource, exprError = exprInfo(rule.Warning)
				}
			}
		})
	}
	e.ExpressionSource, e.ExpressionError = exprSource, exprError

	e.Flags |= types.EventExecRun
	e.ExecRunTimestamp = now

	code, err := d.notifier.Notify(ctx, NotifyRequest{
		Exec:             exec,
		Recipient:        recipient,
		RegistryHostname: host.RegistryHostname,
		Event:            e,
		WarnCount:        warnCount,
		CritCount:        critCount,
		ExpressionSource: exprSource,
		ExpressionError:  exprError,
	})
	if err != nil {
		// Spawn failure: ExecRun stays set, ExecFailed does not,
		// matching health.c's mypopen() failure path.
		d.logger.Error("failed to invoke notifier", "exec", exec, "err", err)
		if d.metrics != nil {
			d.metrics.recordNotification(0, true)
		}
		return
	}

	e.ExecCode = code
	if code != 0 {
		e.Flags |= types.EventExecFailed
	}
	if d.metrics != nil {
		d.metrics.recordNotification(code, false)
	}
}

func exprInfo(e types.Expression) (source, errMsg string) {
	if e == nil {
		return "NOSOURCE", "NOERRMSG"
	}
	src := e.Source()
	if src == "" {
		src = "NOSOURCE"
	}
	msg := e.ErrorMsg()
	if msg == "" {
		msg = "NOERRMSG"
	}
	return src, msg
}
