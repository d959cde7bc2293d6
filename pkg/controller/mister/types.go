package mister

import (
	"context"
	"time"

	"github.com/fskhalsa/humidity-manager/internal/history"
	"github.com/fskhalsa/humidity-manager/internal/telemetry"
)

type (
	// Decision is the result of evaluating a humidity reading against the
	// sensor's alert configuration.
	Decision int

	// CycleOutcome is the final disposition of a single management cycle.
	CycleOutcome string

	// HumidityAlert is the humidity alert configuration attached to the
	// monitored sensor. It is owned by the sensor provider and read-only here.
	HumidityAlert struct {
		Enabled bool
		Minimum float64
		Maximum float64
	}

	// Reading is the latest humidity sample for the monitored sensor.
	Reading struct {
		Humidity   float64
		ObservedAt time.Time
	}

	// MistingParameters are the static misting constants for the process.
	MistingParameters struct {
		TriggerOffset float64
		Runtime       time.Duration
		Cooldown      time.Duration
	}

	// Settings identify the monitored sensor and outlet and how often to poll.
	Settings struct {
		SensorName   string
		OutletName   string
		PollInterval time.Duration
		Misting      MistingParameters
	}

	// CycleResult captures what happened during one cycle for logging,
	// history, telemetry, and the status API.
	CycleResult struct {
		At                time.Time     `json:"at"`
		Outcome           CycleOutcome  `json:"outcome"`
		Humidity          float64       `json:"humidity"`
		ObservedAt        time.Time     `json:"observed_at"`
		Minimum           float64       `json:"minimum"`
		Offset            float64       `json:"offset"`
		MistedFor         time.Duration `json:"-"`
		CooldownRemaining time.Duration `json:"-"`
	}

	// Snapshot is a point-in-time view of the controller for the status API.
	Snapshot struct {
		SensorName        string
		OutletName        string
		Last              *CycleResult
		CooldownActive    bool
		CooldownRemaining time.Duration
		LastTriggeredAt   time.Time
	}

	SensorProvider interface {
		HumidityAlert(ctx context.Context, sensorName string) (HumidityAlert, error)
		LatestReading(ctx context.Context, sensorName string) (Reading, error)
	}

	OutletProvider interface {
		TurnOutletOn(ctx context.Context, outletName string) error
		TurnOutletOff(ctx context.Context, outletName string) error
	}

	CycleStore interface {
		CreateCycle(ctx context.Context, arg history.CreateCycleParams) (history.Cycle, error)
	}

	Publisher interface {
		PublishCycle(event telemetry.CycleEvent) error
	}

	Recorder interface {
		ObserveCycle(result CycleResult)
		ObserveCycleError(err error)
	}
)

const (
	DecisionTrigger Decision = iota
	DecisionDisabled
	DecisionSufficient
)

const (
	OutcomeMisted            CycleOutcome = "MISTED"
	OutcomeSkippedDisabled   CycleOutcome = "SKIPPED_DISABLED"
	OutcomeSkippedSufficient CycleOutcome = "SKIPPED_SUFFICIENT"
	OutcomeSkippedCooldown   CycleOutcome = "SKIPPED_COOLDOWN"
)
