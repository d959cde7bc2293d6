package mister

import "time"

// CooldownGate suppresses repeat misting for a timeout window after each
// trigger so the enclosure humidity has time to adjust. The zero lastTriggered
// value means misting has never been triggered this process lifetime; the gate
// is deliberately not persisted, so a restart resets it.
type CooldownGate struct {
	timeout       time.Duration
	lastTriggered time.Time
}

func NewCooldownGate(timeout time.Duration) CooldownGate {
	return CooldownGate{timeout: timeout}
}

// Suppressed reports whether a new trigger is currently blocked by the
// timeout window. The window is half-open: at exactly lastTriggered+timeout
// the gate is open again.
func (g *CooldownGate) Suppressed(now time.Time) bool {
	if g.lastTriggered.IsZero() {
		return false
	}

	return now.Before(g.lastTriggered.Add(g.timeout))
}

// Record marks a completed trigger. It must be called exactly once per
// successful actuation, after the actuation completes.
func (g *CooldownGate) Record(now time.Time) {
	g.lastTriggered = now
}

// Remaining returns how much of the timeout window is left, or zero when the
// gate is open.
func (g *CooldownGate) Remaining(now time.Time) time.Duration {
	if g.lastTriggered.IsZero() {
		return 0
	}

	remaining := g.lastTriggered.Add(g.timeout).Sub(now)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// LastTriggeredAt returns the last trigger time and whether one has occurred.
func (g *CooldownGate) LastTriggeredAt() (time.Time, bool) {
	return g.lastTriggered, !g.lastTriggered.IsZero()
}
