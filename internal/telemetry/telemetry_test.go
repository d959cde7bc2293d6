package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFormatCyclePayload(t *testing.T) {
	event := CycleEvent{
		Timestamp:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Outcome:          "MISTED",
		Humidity:         42.5,
		Minimum:          50,
		MistedForSeconds: 5,
	}

	data, err := FormatCyclePayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	if payload.Enclosure.Timestamp != "2024-06-01T12:00:00Z" {
		t.Errorf("unexpected timestamp: %q", payload.Enclosure.Timestamp)
	}

	if payload.Enclosure.Outcome != "MISTED" || payload.Enclosure.Humidity != 42.5 {
		t.Errorf("unexpected payload: %+v", payload.Enclosure)
	}

	t.Run("omits runtime when not misted", func(t *testing.T) {
		skipped := CycleEvent{
			Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			Outcome:   "SKIPPED_SUFFICIENT",
			Humidity:  55,
			Minimum:   50,
		}

		data, err := FormatCyclePayload(skipped)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var raw map[string]map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("payload is not valid JSON: %v", err)
		}

		if _, ok := raw["enclosure"]["misted_for_seconds"]; ok {
			t.Error("expected misted_for_seconds to be omitted for a skipped cycle")
		}
	})
}

func TestFakePublisher(t *testing.T) {
	fake := &FakePublisher{}

	event := CycleEvent{Outcome: "MISTED", Humidity: 42.5}
	if err := fake.PublishCycle(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	published := fake.Published()
	if len(published) != 1 || published[0].Outcome != "MISTED" {
		t.Errorf("unexpected published events: %+v", published)
	}

	fake.Err = errors.New("broker down")
	if err := fake.PublishCycle(event); err == nil {
		t.Error("expected the injected error")
	}

	if err := fake.Close(); err != nil || !fake.Closed {
		t.Errorf("expected close to be recorded, err=%v closed=%v", err, fake.Closed)
	}
}
