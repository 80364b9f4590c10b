package health

import "time"

// SuspensionDetector notices when the process has been suspended and
// resumed (e.g. a laptop sleep), by comparing the wall-clock time
// actually elapsed between two scheduler ticks against the interval
// the scheduler was configured to run at: a healthy tick arrives
// roughly every expected, while a suspend/resume lets far more real
// time pass between the tick that went to sleep and the one that woke
// up. Grounded on original_source/health/health.c's
// check_if_resumed_from_suspention, which flags the same condition by
// comparing a wall-clock delta against the health thread's configured
// run-every interval.
type SuspensionDetector struct {
	expected  time.Duration
	threshold time.Duration

	last   time.Time
	primed bool
}

// NewSuspensionDetector returns a detector for a scheduler that ticks
// roughly every expected, flagging a resume once the wall clock has
// advanced more than threshold past expected since the previous
// check. threshold <= 0 disables detection.
func NewSuspensionDetector(expected, threshold time.Duration) *SuspensionDetector {
	return &SuspensionDetector{expected: expected, threshold: threshold}
}

// Check reports whether a suspend/resume occurred since the previous
// call, and records now as the new baseline. The first call never
// reports a resume, since there is no prior baseline to compare
// against.
func (d *SuspensionDetector) Check(now time.Time) bool {
	if !d.primed {
		d.last, d.primed = now, true
		return false
	}

	elapsed := now.Sub(d.last)
	d.last = now

	if d.threshold <= 0 {
		return false
	}
	return elapsed > d.expected+d.threshold
}
