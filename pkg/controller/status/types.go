package status

import (
	"context"
	"time"

	"github.com/fskhalsa/humidity-manager/internal/history"
	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
)

type (
	// CycleStatus is one past management cycle as exposed on the status API.
	CycleStatus struct {
		At       time.Time `json:"at"`
		Outcome  string    `json:"outcome"`
		Humidity float64   `json:"humidity"`
		Minimum  float64   `json:"minimum"`
	}

	// SystemStatus is the full controller state served on GET /v1/status and
	// streamed over the status websocket.
	SystemStatus struct {
		Sensor              string              `json:"sensor"`
		Outlet              string              `json:"outlet"`
		LastCycle           *mister.CycleResult `json:"last_cycle,omitempty"`
		CooldownActive      bool                `json:"cooldown_active"`
		CooldownSecondsLeft float64             `json:"cooldown_seconds_left"`
		LastTriggeredAt     *time.Time          `json:"last_triggered_at,omitempty"`
		RecentCycles        []CycleStatus       `json:"recent_cycles,omitempty"`
		RecentCyclesError   string              `json:"recent_cycles_error,omitempty"`
	}

	StatusStore interface {
		RecentCycles(ctx context.Context, limit int) ([]history.Cycle, error)
	}

	Handler struct {
		mister         *mister.Mister
		store          StatusStore
		originPatterns []string
	}
)
