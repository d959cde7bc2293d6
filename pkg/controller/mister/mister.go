package mister

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fskhalsa/humidity-manager/internal/history"
	"github.com/fskhalsa/humidity-manager/internal/telemetry"
)

// how long we allow the off command after the misting hold, even when the
// cycle context is already canceled
const outletOffTimeout = 10 * time.Second

// Mister owns the cooldown state and runs the poll cycle: fetch the reading
// and alert configuration, evaluate the threshold, consult the cooldown gate,
// and actuate the misting pump outlet when called for.
type Mister struct {
	sensors   SensorProvider
	outlets   OutletProvider
	store     CycleStore
	publisher Publisher
	metrics   Recorder
	settings  Settings

	gate CooldownGate

	mu   sync.Mutex
	last *CycleResult
}

// NewMister wires up a Mister. The store, publisher, and metrics recorder are
// optional and may be nil.
func NewMister(settings Settings, sensors SensorProvider, outlets OutletProvider, store CycleStore, publisher Publisher, metrics Recorder) *Mister {
	return &Mister{
		sensors:   sensors,
		outlets:   outlets,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		settings:  settings,
		gate:      NewCooldownGate(settings.Misting.Cooldown),
	}
}

// Run polls at the configured interval until the context is canceled. The
// first cycle runs immediately. Cycle failures are logged and the next tick
// retries; only startup configuration problems terminate the process.
func (m *Mister) Run(ctx context.Context) {
	slog.Info("Beginning humidity management",
		"sensor", m.settings.SensorName,
		"outlet", m.settings.OutletName,
		"poll_interval", m.settings.PollInterval,
		"trigger_offset", m.settings.Misting.TriggerOffset,
		"misting_runtime", m.settings.Misting.Runtime,
		"misting_timeout", m.settings.Misting.Cooldown)

	ticker := time.NewTicker(m.settings.PollInterval)
	defer ticker.Stop()

	m.manageCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Humidity management stopped")
			return

		case <-ticker.C:
			m.manageCycle(ctx)
		}
	}
}

func (m *Mister) manageCycle(ctx context.Context) {
	result, err := m.RunCycle(ctx, time.Now().UTC())
	if err != nil {
		m.reportCycleError(err)
		return
	}

	m.reportCycle(ctx, result)
}

// RunCycle performs one management cycle and returns its outcome. Exactly one
// outlet on/off pair is issued and exactly one cooldown record is made when
// and only when the outcome is OutcomeMisted.
func (m *Mister) RunCycle(ctx context.Context, now time.Time) (CycleResult, error) {
	slog.Debug(">>RunCycle")
	defer slog.Debug("<<RunCycle")

	alert, err := m.sensors.HumidityAlert(ctx, m.settings.SensorName)
	if err != nil {
		return CycleResult{}, fmt.Errorf("fetch humidity alert configuration: %w", err)
	}

	reading, err := m.sensors.LatestReading(ctx, m.settings.SensorName)
	if err != nil {
		return CycleResult{}, fmt.Errorf("fetch latest humidity reading: %w", err)
	}

	result := CycleResult{
		At:         now,
		Humidity:   reading.Humidity,
		ObservedAt: reading.ObservedAt,
		Minimum:    alert.Minimum,
		Offset:     m.settings.Misting.TriggerOffset,
	}

	switch EvaluateThreshold(reading.Humidity, alert, m.settings.Misting.TriggerOffset) {
	case DecisionDisabled:
		result.Outcome = OutcomeSkippedDisabled

	case DecisionSufficient:
		result.Outcome = OutcomeSkippedSufficient

	case DecisionTrigger:
		// the gate is shared with Snapshot readers on the status mux
		m.mu.Lock()
		suppressed := m.gate.Suppressed(now)
		remaining := m.gate.Remaining(now)
		m.mu.Unlock()

		if suppressed {
			result.Outcome = OutcomeSkippedCooldown
			result.CooldownRemaining = remaining
			break
		}

		if err := m.mist(ctx); err != nil {
			return CycleResult{}, err
		}

		// record only after the actuation fully completed
		m.mu.Lock()
		m.gate.Record(now)
		m.mu.Unlock()
		result.Outcome = OutcomeMisted
		result.MistedFor = m.settings.Misting.Runtime
	}

	m.setLast(result)

	return result, nil
}

// mist turns the outlet on, holds for the configured runtime, and turns it
// off. The off command is always attempted, even when the hold is interrupted
// by cancellation, and its failure is escalated as ActuationIncompleteError.
func (m *Mister) mist(ctx context.Context) error {
	slog.Debug(">>mist")
	defer slog.Debug("<<mist")

	if err := m.outlets.TurnOutletOn(ctx, m.settings.OutletName); err != nil {
		return fmt.Errorf("turn misting outlet on: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(m.settings.Misting.Runtime):
	}

	// the cycle context may already be canceled; the outlet must not be left
	// on, so the off command gets its own deadline
	offCtx, cancel := context.WithTimeout(context.Background(), outletOffTimeout)
	defer cancel()

	if err := m.outlets.TurnOutletOff(offCtx, m.settings.OutletName); err != nil {
		return &ActuationIncompleteError{Outlet: m.settings.OutletName, Err: err}
	}

	return nil
}

func (m *Mister) reportCycle(ctx context.Context, result CycleResult) {
	switch result.Outcome {
	case OutcomeMisted:
		slog.Info("Humidity below lower limit, misting enabled",
			"humidity", result.Humidity,
			"minimum", result.Minimum,
			"runtime", result.MistedFor)

	case OutcomeSkippedSufficient:
		slog.Info("Humidity at or above lower limit, no misting necessary",
			"humidity", result.Humidity,
			"minimum", result.Minimum)

	case OutcomeSkippedCooldown:
		slog.Info("Misting recently triggered, allowing humidity time to adjust",
			"humidity", result.Humidity,
			"minimum", result.Minimum,
			"cooldown_remaining", result.CooldownRemaining)

	case OutcomeSkippedDisabled:
		slog.Error("Humidity range not enabled on sensor, set a minimum humidity limit with the sensor provider",
			"sensor", m.settings.SensorName)
	}

	if m.store != nil {
		arg := history.CreateCycleParams{
			CreatedAt: result.At,
			Outcome:   string(result.Outcome),
			Humidity:  result.Humidity,
			Minimum:   result.Minimum,
			Offset:    result.Offset,
		}
		if _, err := m.store.CreateCycle(ctx, arg); err != nil {
			slog.Error("failed to save the cycle outcome to the history store", "error", err)
		}
	}

	if m.publisher != nil {
		event := telemetry.CycleEvent{
			Timestamp:        result.At,
			Outcome:          string(result.Outcome),
			Humidity:         result.Humidity,
			Minimum:          result.Minimum,
			MistedForSeconds: result.MistedFor.Seconds(),
		}
		if err := m.publisher.PublishCycle(event); err != nil {
			slog.Warn("failed to publish the cycle outcome", "error", err)
		}
	}

	if m.metrics != nil {
		m.metrics.ObserveCycle(result)
	}
}

func (m *Mister) reportCycleError(err error) {
	var actuation *ActuationIncompleteError

	switch {
	case errors.As(err, &actuation):
		// loud and distinct: unattended continuous misting risk
		slog.Error("MISTING OUTLET MAY STILL BE ON, manual intervention may be required",
			"outlet", actuation.Outlet,
			"error", actuation.Err)

	case IsConfigurationError(err):
		slog.Error("cycle aborted, provider configuration error", "error", err)

	default:
		slog.Warn("cycle aborted, provider unavailable, will retry next poll", "error", err)
	}

	if m.metrics != nil {
		m.metrics.ObserveCycleError(err)
	}
}

func (m *Mister) setLast(result CycleResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &result
}

// Snapshot returns the current controller state for the status API.
func (m *Mister) Snapshot(now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		SensorName:        m.settings.SensorName,
		OutletName:        m.settings.OutletName,
		CooldownActive:    m.gate.Suppressed(now),
		CooldownRemaining: m.gate.Remaining(now),
	}

	if last, ok := m.gate.LastTriggeredAt(); ok {
		s.LastTriggeredAt = last
	}

	if m.last != nil {
		last := *m.last
		s.Last = &last
	}

	return s
}
