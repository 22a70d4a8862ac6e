// Package session runs the per-connection game protocol: it turns inbound
// messages into board operations and board outcomes into outbound messages.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/minesweeper/internal/minesweeper"
	"github.com/playperu/minesweeper/internal/stats"
)

var (
	// ErrInvalidStart is returned when the first message is not a valid
	// start message.
	ErrInvalidStart = errors.New("invalid start")
	// ErrInvalidMessage is returned for malformed or unknown messages once
	// the game is running.
	ErrInvalidMessage = errors.New("invalid message")
	ErrEnded          = errors.New("session ended")
)

// State is the session lifecycle. Transitions only move forward.
type State int

const (
	StateNotStarted State = iota
	StatePlaying
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transport carries messages for one connection. Receive fails once the
// peer has gone away.
type Transport interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(ctx context.Context, v any) error
}

// Recorder receives the result of every game that was started.
type Recorder interface {
	Record(ctx context.Context, r stats.Result) error
}

// Limits bounds the board a client may request.
type Limits struct {
	MaxHeight int
	MaxWidth  int
}

var DefaultLimits = Limits{MaxHeight: 100, MaxWidth: 100}

const recordTimeout = 5 * time.Second

// Session is owned by a single connection and is not safe for concurrent use.
type Session struct {
	id       string
	logger   *slog.Logger
	recorder Recorder
	limits   Limits
	rng      *rand.Rand
	now      func() time.Time

	state     State
	board     *minesweeper.Board
	finished  bool
	startedAt time.Time
	moves     int
}

type Option func(*Session)

func WithID(id string) Option { return func(s *Session) { s.id = id } }

func WithRecorder(r Recorder) Option { return func(s *Session) { s.recorder = r } }

func WithLimits(l Limits) Option { return func(s *Session) { s.limits = l } }

// WithRand fixes the source used for mine placement.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.rng = r } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func New(logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		limits: DefaultLimits,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = logger.With("session_id", s.id)
	return s
}

func (s *Session) ID() string     { return s.id }
func (s *Session) State() State   { return s.state }
func (s *Session) Finished() bool { return s.finished }

// Run reads messages until the transport fails or a protocol error occurs.
// A protocol error is reported to the client and returned so the caller can
// close the connection; disconnection returns nil.
func (s *Session) Run(ctx context.Context, t Transport) error {
	defer s.Close(ctx)

	for {
		raw, err := t.Receive(ctx)
		if err != nil {
			s.logger.Debug("session receive ended", "error", err)
			return nil
		}

		msgs, err := s.Handle(ctx, raw)
		if err != nil {
			s.logger.Warn("protocol error", "state", s.state, "error", err)
			resp := ErrorMessage{Error: err.Error(), StatusCode: http.StatusBadRequest}
			if sendErr := t.Send(ctx, resp); sendErr != nil {
				s.logger.Debug("sending error message failed", "error", sendErr)
			}
			return err
		}

		for _, m := range msgs {
			if err := t.Send(ctx, m); err != nil {
				s.logger.Debug("session send failed", "status", m.Status, "error", err)
				return nil
			}
		}
	}
}

// Handle processes one inbound message and returns the messages to send
// back, in order. Any error ends the session.
func (s *Session) Handle(ctx context.Context, raw []byte) ([]Message, error) {
	if s.state == StateEnded {
		return nil, ErrEnded
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		if s.state == StateNotStarted {
			return s.fail(ctx, fmt.Errorf("%w: %v", ErrInvalidStart, err))
		}
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
	}

	if s.state == StateNotStarted {
		return s.start(ctx, req)
	}
	return s.play(ctx, req)
}

// Close ends the session. A game that was started but not finished is
// recorded as abandoned.
func (s *Session) Close(ctx context.Context) {
	if s.state == StatePlaying && !s.finished {
		s.logger.Info("game abandoned", "moves", s.moves)
		s.finish(ctx, stats.Abandoned)
	}
	s.state = StateEnded
}

// fail ends the session on a protocol error. A game in progress counts as
// abandoned.
func (s *Session) fail(ctx context.Context, err error) ([]Message, error) {
	s.Close(ctx)
	return nil, err
}

func (s *Session) start(ctx context.Context, req Request) ([]Message, error) {
	if req.Type != TypeStart {
		return s.fail(ctx, fmt.Errorf("%w: expected %q message, got %q", ErrInvalidStart, TypeStart, req.Type))
	}
	if req.Start == nil || req.Mines == nil || req.Height == nil || req.Width == nil {
		return s.fail(ctx, fmt.Errorf("%w: start, mines, height and width are required", ErrInvalidStart))
	}
	height, width := *req.Height, *req.Width
	if height > s.limits.MaxHeight || width > s.limits.MaxWidth {
		return s.fail(ctx, fmt.Errorf("%w: board %dx%d exceeds %dx%d",
			ErrInvalidStart, height, width, s.limits.MaxHeight, s.limits.MaxWidth))
	}

	var opts []minesweeper.Option
	if s.rng != nil {
		opts = append(opts, minesweeper.WithRand(s.rng))
	}
	board, err := minesweeper.NewBoard(*req.Start, *req.Mines, height, width, opts...)
	if err != nil {
		var cfgErr *minesweeper.ConfigurationError
		if errors.As(err, &cfgErr) {
			return s.fail(ctx, err)
		}
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrInvalidStart, err))
	}

	s.board = board
	s.state = StatePlaying
	s.startedAt = s.now()
	s.logger.Info("game started",
		"start", *req.Start,
		"mines", *req.Mines,
		"height", height,
		"width", width,
	)

	out, err := board.Reveal(*req.Start)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrInvalidStart, err))
	}
	return s.afterOpen(ctx, out), nil
}

func (s *Session) play(ctx context.Context, req Request) ([]Message, error) {
	switch req.Type {
	case TypeClick, TypeFlag, TypeRemoveFlag, TypeCheckNeighbours:
	case TypeStart:
		return s.fail(ctx, fmt.Errorf("%w: game already started", ErrInvalidMessage))
	default:
		return s.fail(ctx, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, req.Type))
	}
	if req.Cell == nil {
		return s.fail(ctx, fmt.Errorf("%w: %s requires a cell", ErrInvalidMessage, req.Type))
	}
	cell := *req.Cell

	if s.finished {
		s.logger.Debug("ignoring move after game end", "type", req.Type, "cell", cell)
		return nil, nil
	}
	s.moves++

	var (
		out minesweeper.Outcome
		err error
	)
	switch req.Type {
	case TypeClick:
		s.logger.Info("cell clicked", "cell", cell)
		out, err = s.board.Reveal(cell)
	case TypeCheckNeighbours:
		s.logger.Info("neighbours checked", "cell", cell)
		out, err = s.board.Chord(cell)
	case TypeFlag:
		s.logger.Debug("cell flagged", "cell", cell)
		err = s.board.Flag(cell, false)
	case TypeRemoveFlag:
		s.logger.Debug("cell unflagged", "cell", cell)
		err = s.board.Flag(cell, true)
	}
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
	}

	if req.Type == TypeFlag || req.Type == TypeRemoveFlag {
		return nil, nil
	}
	return s.afterOpen(ctx, out), nil
}

// afterOpen encodes the outcome of an operation that may have opened cells
// and appends a win message when the board is cleared.
func (s *Session) afterOpen(ctx context.Context, out minesweeper.Outcome) []Message {
	var msgs []Message
	if m, ok := encode(out); ok {
		msgs = append(msgs, m)
	}

	if _, over := out.(minesweeper.GameOver); over {
		s.logger.Info("game lost", "moves", s.moves)
		s.finish(ctx, stats.Lost)
		return msgs
	}
	if s.board.CheckWin() {
		m, _ := encode(minesweeper.Win{})
		msgs = append(msgs, m)
		s.logger.Info("game won", "moves", s.moves)
		s.finish(ctx, stats.Won)
	}
	return msgs
}

func (s *Session) finish(ctx context.Context, outcome stats.Outcome) {
	s.finished = true
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	res := stats.Result{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Height:    s.board.Height(),
		Width:     s.board.Width(),
		Mines:     s.board.MineCount(),
		Outcome:   outcome,
		Moves:     s.moves,
		StartedAt: s.startedAt,
		EndedAt:   s.now(),
	}
	if err := s.recorder.Record(ctx, res); err != nil {
		s.logger.Error("recording game result failed", "outcome", outcome, "error", err)
	}
}
