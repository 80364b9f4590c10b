package types

import "time"

// Host owns a rule set, an event log and health dispatch defaults
// (spec.md §3, Host (H)). The host's rules and event log are not
// fields of this struct: the health package keeps them alongside it
// (health.HostState's Registry and EventLog).
type Host struct {
	Hostname         string
	RegistryHostname string

	HealthEnabled bool

	DefaultExec      string
	DefaultRecipient string

	// HealthDelayUpTo postpones all evaluation on this host until the
	// given wall-clock instant, set after a detected suspension
	// (spec.md §4.10) or during a hibernation window.
	HealthDelayUpTo time.Time

	// HealthLastProcessedID is the dispatcher's cursor into the event
	// log (spec.md §4.8).
	HealthLastProcessedID uint64
}
