// Package stats records finished games and summarizes them. Only results
// are stored; boards themselves never outlive their connection.
package stats

import (
	"context"
	"errors"
	"time"
)

// Outcome is how a game ended.
type Outcome string

const (
	Won       Outcome = "won"
	Lost      Outcome = "lost"
	Abandoned Outcome = "abandoned"
)

// Result describes one finished game.
type Result struct {
	ID        string
	SessionID string
	Height    int
	Width     int
	Mines     int
	Outcome   Outcome
	Moves     int
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration is the time from the first click to the end of the game.
func (r Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Summary aggregates recorded results.
type Summary struct {
	Played    int        `json:"played"`
	Won       int        `json:"won"`
	Lost      int        `json:"lost"`
	Abandoned int        `json:"abandoned"`
	Best      []BestTime `json:"best"`
}

// BestTime is the fastest win for one board configuration.
type BestTime struct {
	Height     int   `json:"height"`
	Width      int   `json:"width"`
	Mines      int   `json:"mines"`
	DurationMS int64 `json:"durationMs"`
}

// Recorder stores finished games.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Multi fans a result out to several recorders. Every recorder is tried;
// failures are joined.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, r Result) error {
	var errs []error
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Summary) add(o Outcome, n int) {
	s.Played += n
	switch o {
	case Won:
		s.Won += n
	case Lost:
		s.Lost += n
	case Abandoned:
		s.Abandoned += n
	}
}

// Summarizer reports aggregate statistics.
type Summarizer interface {
	Summary(ctx context.Context) (Summary, error)
}
