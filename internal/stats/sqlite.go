package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore keeps results in the games table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Record(ctx context.Context, r Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, session_id, height, width, mines, outcome, moves, started_at, ended_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.SessionID, r.Height, r.Width, r.Mines, string(r.Outcome), r.Moves,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.EndedAt.UTC().Format(time.RFC3339Nano),
		r.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting game %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) Summary(ctx context.Context) (Summary, error) {
	var sum Summary

	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM games
		GROUP BY outcome
	`)
	if err != nil {
		return sum, fmt.Errorf("counting games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return sum, fmt.Errorf("scanning count: %w", err)
		}
		sum.add(Outcome(outcome), n)
	}
	if err := rows.Err(); err != nil {
		return sum, fmt.Errorf("counting games: %w", err)
	}

	best, err := s.db.QueryContext(ctx, `
		SELECT height, width, mines, MIN(duration_ms)
		FROM games
		WHERE outcome = ?
		GROUP BY height, width, mines
		ORDER BY height, width, mines
	`, string(Won))
	if err != nil {
		return sum, fmt.Errorf("querying best times: %w", err)
	}
	defer best.Close()

	for best.Next() {
		var b BestTime
		if err := best.Scan(&b.Height, &b.Width, &b.Mines, &b.DurationMS); err != nil {
			return sum, fmt.Errorf("scanning best time: %w", err)
		}
		sum.Best = append(sum.Best, b)
	}
	return sum, best.Err()
}
