package types

// Silencer is one pattern-based matcher in a Silencers ruleset
// (spec.md §3, Silencer ruleset (S)). Empty patterns are wildcards —
// a Silencer matches a rule iff every non-empty pattern it defines
// matches the corresponding field.
type Silencer struct {
	Alarm   string `json:"alarm,omitempty"`
	Chart   string `json:"chart,omitempty"`
	Context string `json:"context,omitempty"`
	Host    string `json:"hosts,omitempty"`
	Family  string `json:"families,omitempty"`
}

// Silencers is the full ruleset the control API mutates at runtime
// (out of scope, spec.md §6) and the silencer engine (C2) consumes.
type Silencers struct {
	Silencers []Silencer  `json:"silencers,omitempty"`
	Type      SilenceType `json:"type"`
	AllAlarms bool        `json:"all,omitempty"`
}
