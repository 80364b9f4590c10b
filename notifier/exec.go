// Package notifier implements the notification dispatcher's Notifier
// capability (spec.md §6) by spawning an external executable with a
// fixed positional argv, draining its stdout, and reporting its exit
// code. Grounded on alertmanager's notify/exec package, adapted from
// alertmanager's templated Message argv to netdata's fixed positional
// argv (original_source/health/health.c's health_alarm_execute).
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/netdata/health-engine/health"
)

// Exec spawns the notifier script for each dispatched event.
type Exec struct {
	logger  *slog.Logger
	timeout time.Duration
}

// New returns an Exec notifier. timeout <= 0 means no per-invocation
// timeout, matching the default netdata behavior (no ALARM_EXEC
// timeout in the original source).
func New(timeout time.Duration, logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{logger: logger.With("component", "notifier"), timeout: timeout}
}

var _ health.Notifier = (*Exec)(nil)

// Notify builds the argv described in spec.md §4.8 and runs it,
// discarding stdout exactly as health.c's health_alarm_execute does
// ("while(fgets(buffer, 100, fp) != NULL) ;").
func (n *Exec) Notify(ctx context.Context, req health.NotifyRequest) (int, error) {
	cmdCtx := ctx
	if n.timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	argv := buildArgv(req)

	n.logger.Debug("invoking notifier", "exec", req.Exec, "alarm", req.Event.Name)

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("unable to start notifier %q: %w", req.Exec, err)
	}

	err := cmd.Wait() // stdout is drained into the buffer above, never inspected

	if err == nil {
		return 0, nil
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode(), nil
	}
	return 0, fmt.Errorf("notifier %q did not complete: %w", req.Exec, err)
}

// buildArgv lays out the fixed positional argv health.c's
// health_alarm_execute constructs with snprintfz, in the same order.
func buildArgv(req health.NotifyRequest) []string {
	e := req.Event

	chart := e.Chart
	if chart == "" {
		chart = "NOCHART"
	}
	family := e.Family
	if family == "" {
		family = "NOFAMILY"
	}
	source := e.Source
	if source == "" {
		source = "UNKNOWN"
	}
	exprSource := req.ExpressionSource
	if exprSource == "" {
		exprSource = "NOSOURCE"
	}
	exprErr := req.ExpressionError
	if exprErr == "" {
		exprErr = "NOERRMSG"
	}

	return []string{
		req.Exec,
		req.Recipient,
		req.RegistryHostname,
		strconv.FormatUint(e.UniqueID, 10),
		strconv.FormatUint(uint64(e.AlarmID), 10),
		strconv.FormatUint(uint64(e.AlarmEventID), 10),
		strconv.FormatInt(e.When.Unix(), 10),
		e.Name,
		chart,
		family,
		e.NewStatus.String(),
		e.OldStatus.String(),
		e.NewValueString(),
		e.OldValueString(),
		source,
		strconv.FormatInt(int64(e.Duration.Seconds()), 10),
		strconv.FormatInt(int64(e.NonClearDuration.Seconds()), 10),
		e.Units,
		e.Info,
		e.NewValueString(),
		e.OldValueString(),
		exprSource,
		exprErr,
		strconv.Itoa(req.WarnCount),
		strconv.Itoa(req.CritCount),
	}
}
