// Package history provides SQLite-backed persistence for cycle outcomes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type (
	// Cycle is one recorded management cycle outcome.
	Cycle struct {
		ID        uuid.UUID `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		Outcome   string    `json:"outcome"`
		Humidity  float64   `json:"humidity"`
		Minimum   float64   `json:"minimum"`
		Offset    float64   `json:"offset"`
	}

	CreateCycleParams struct {
		CreatedAt time.Time
		Outcome   string
		Humidity  float64
		Minimum   float64
		Offset    float64
	}

	// Store records cycle outcomes. It is write-only from the control loop
	// and read by the status API; the cooldown state itself is never
	// persisted here.
	Store struct {
		db *sql.DB
	}
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	outcome TEXT NOT NULL,
	humidity REAL NOT NULL,
	minimum REAL NOT NULL,
	trigger_offset REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_created_at ON cycles(created_at);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCycle inserts one cycle outcome row and returns it.
func (s *Store) CreateCycle(ctx context.Context, arg CreateCycleParams) (Cycle, error) {
	if s == nil || s.db == nil {
		return Cycle{}, fmt.Errorf("create cycle: store is nil")
	}

	cycle := Cycle{
		ID:        uuid.New(),
		CreatedAt: arg.CreatedAt.UTC(),
		Outcome:   arg.Outcome,
		Humidity:  arg.Humidity,
		Minimum:   arg.Minimum,
		Offset:    arg.Offset,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, created_at, outcome, humidity, minimum, trigger_offset)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cycle.ID.String(),
		cycle.CreatedAt.Format(time.RFC3339Nano),
		cycle.Outcome,
		cycle.Humidity,
		cycle.Minimum,
		cycle.Offset,
	)
	if err != nil {
		return Cycle{}, fmt.Errorf("create cycle: insert: %w", err)
	}

	return cycle, nil
}

// RecentCycles returns up to limit cycles, newest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]Cycle, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("recent cycles: store is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("recent cycles: limit must be > 0")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, outcome, humidity, minimum, trigger_offset
		 FROM cycles
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent cycles: query: %w", err)
	}
	defer rows.Close()

	cycles := make([]Cycle, 0, limit)
	for rows.Next() {
		var cycle Cycle
		var idStr, createdAtStr string

		if err := rows.Scan(&idStr, &createdAtStr, &cycle.Outcome, &cycle.Humidity, &cycle.Minimum, &cycle.Offset); err != nil {
			return nil, fmt.Errorf("recent cycles: scan: %w", err)
		}

		cycle.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("recent cycles: parse id: %w", err)
		}

		cycle.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("recent cycles: parse created_at: %w", err)
		}

		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent cycles: rows: %w", err)
	}

	return cycles, nil
}
