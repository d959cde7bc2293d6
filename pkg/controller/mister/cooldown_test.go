package mister

import (
	"testing"
	"time"
)

func TestCooldownGate(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	timeout := 600 * time.Second

	t.Run("open before any trigger", func(t *testing.T) {
		gate := NewCooldownGate(timeout)

		if gate.Suppressed(base) {
			t.Error("expected gate to be open before any trigger")
		}

		if remaining := gate.Remaining(base); remaining != 0 {
			t.Errorf("expected no remaining time, got %v", remaining)
		}

		if _, ok := gate.LastTriggeredAt(); ok {
			t.Error("expected no last trigger time")
		}
	})

	t.Run("suppressed inside the window", func(t *testing.T) {
		gate := NewCooldownGate(timeout)
		gate.Record(base)

		if !gate.Suppressed(base.Add(599 * time.Second)) {
			t.Error("expected gate to be suppressed 1s before the window closes")
		}

		if remaining := gate.Remaining(base.Add(599 * time.Second)); remaining != time.Second {
			t.Errorf("expected 1s remaining, got %v", remaining)
		}
	})

	t.Run("open at the window boundary", func(t *testing.T) {
		gate := NewCooldownGate(timeout)
		gate.Record(base)

		if gate.Suppressed(base.Add(600 * time.Second)) {
			t.Error("expected gate to be open at exactly the window boundary")
		}
	})

	t.Run("open after the window", func(t *testing.T) {
		gate := NewCooldownGate(timeout)
		gate.Record(base)

		if gate.Suppressed(base.Add(601 * time.Second)) {
			t.Error("expected gate to be open after the window")
		}

		if remaining := gate.Remaining(base.Add(601 * time.Second)); remaining != 0 {
			t.Errorf("expected no remaining time, got %v", remaining)
		}
	})

	t.Run("re-trigger restarts the window", func(t *testing.T) {
		gate := NewCooldownGate(timeout)
		gate.Record(base)
		gate.Record(base.Add(700 * time.Second))

		if !gate.Suppressed(base.Add(900 * time.Second)) {
			t.Error("expected gate to be suppressed inside the restarted window")
		}

		last, ok := gate.LastTriggeredAt()
		if !ok || !last.Equal(base.Add(700*time.Second)) {
			t.Errorf("expected last trigger at the second record, got %v", last)
		}
	})
}
