package health

import (
	"fmt"
	"log/slog"

	"github.com/netdata/health-engine/silence"
	"github.com/netdata/health-engine/types"
)

// RuleSource loads the full rule set for a host from the (out-of-scope)
// configuration directory, matching spec.md §6's "load rule
// definitions" external dependency. This repository ships no
// implementation of it; tests use fakes.
type RuleSource interface {
	LoadRules(hostname string) ([]*types.Rule, error)
}

// ReloadCoordinator implements component C10: dropping a host's
// current rule set and templates, re-reading rule definitions, and
// re-linking the fresh rules to their charts. Grounded on
// original_source/health/health.c's health_reload_host/health_reload.
type ReloadCoordinator struct {
	logger *slog.Logger
}

// NewReloadCoordinator returns a ReloadCoordinator.
func NewReloadCoordinator(logger *slog.Logger) *ReloadCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadCoordinator{logger: logger.With("component", "reload")}
}

// Reload implements spec.md §4.9: it marks every non-Removed log entry
// Updated (so the dispatcher's next pass treats the old rule
// generation's pending events as already handled, per health.c's
// health_reload_host marking ae->flags |= HEALTH_ENTRY_FLAG_UPDATED),
// drops the host's current rules, loads the fresh set from source, and
// re-applies the silencer ruleset to each new rule before registering
// it.
//
// A load failure leaves the registry and log untouched — per spec.md
// §7, a reload failure must not tear down a host's already-running
// rule set.
func (c *ReloadCoordinator) Reload(hostname string, registry *Registry, log *EventLog, silencer *silence.Engine, source RuleSource) error {
	rules, err := source.LoadRules(hostname)
	if err != nil {
		c.logger.Error("failed to reload rules, keeping previous generation",
			"host", hostname, "err", err)
		return fmt.Errorf("reload rules for host %q: %w", hostname, err)
	}

	log.MarkUpdatedAllExceptRemoved()

	for _, old := range registry.Snapshot() {
		registry.Remove(old.AlarmID)
	}

	for _, rule := range rules {
		rule.Status = types.StatusUninitialized
		rule.OldStatus = types.StatusUninitialized
		silencer.UpdateDisabledSilenced(hostname, rule)
		registry.Add(rule)
	}

	c.logger.Info("reloaded health configuration", "host", hostname, "rules", len(rules))
	return nil
}
