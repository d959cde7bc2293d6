package mister

import "testing"

func TestEvaluateThreshold(t *testing.T) {
	enabled := HumidityAlert{Enabled: true, Minimum: 50, Maximum: 65}

	t.Run("triggers below the minimum", func(t *testing.T) {
		if d := EvaluateThreshold(49, enabled, 0); d != DecisionTrigger {
			t.Errorf("expected trigger, got %v", d)
		}
	})

	t.Run("sufficient exactly at the minimum", func(t *testing.T) {
		if d := EvaluateThreshold(50, enabled, 0); d != DecisionSufficient {
			t.Errorf("expected sufficient, got %v", d)
		}
	})

	t.Run("sufficient above the minimum", func(t *testing.T) {
		if d := EvaluateThreshold(63.9, enabled, 0); d != DecisionSufficient {
			t.Errorf("expected sufficient, got %v", d)
		}
	})

	t.Run("offset raises the effective reading", func(t *testing.T) {
		if d := EvaluateThreshold(47, enabled, 5); d != DecisionSufficient {
			t.Errorf("expected sufficient with offset, got %v", d)
		}

		if d := EvaluateThreshold(44.9, enabled, 5); d != DecisionTrigger {
			t.Errorf("expected trigger with offset, got %v", d)
		}
	})

	t.Run("boundary with offset is sufficient", func(t *testing.T) {
		if d := EvaluateThreshold(45, enabled, 5); d != DecisionSufficient {
			t.Errorf("expected sufficient at exact boundary, got %v", d)
		}
	})

	t.Run("disabled range wins over any reading", func(t *testing.T) {
		disabled := HumidityAlert{Enabled: false, Minimum: 50, Maximum: 65}

		if d := EvaluateThreshold(10, disabled, 0); d != DecisionDisabled {
			t.Errorf("expected disabled for low reading, got %v", d)
		}

		if d := EvaluateThreshold(90, disabled, 0); d != DecisionDisabled {
			t.Errorf("expected disabled for high reading, got %v", d)
		}
	})
}
