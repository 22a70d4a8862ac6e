// Package play serves the game websocket. Each connection gets its own
// session and board.
package play

import (
	"context"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/minesweeper/internal/session"
)

// Close reasons are limited to 123 bytes of UTF-8 by the websocket protocol.
const maxCloseReason = 123

type Handler struct {
	logger      *slog.Logger
	recorder    session.Recorder
	limits      session.Limits
	maxLifetime time.Duration
}

// NewHandler returns a websocket game handler. recorder may be nil.
// A zero maxLifetime leaves connections open until either side closes.
func NewHandler(logger *slog.Logger, recorder session.Recorder, limits session.Limits, maxLifetime time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		recorder:    recorder,
		limits:      limits,
		maxLifetime: maxLifetime,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/play", h.play)
	return r
}

func (h *Handler) play(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	if h.maxLifetime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.maxLifetime)
		defer cancel()
	}

	opts := []session.Option{session.WithLimits(h.limits)}
	if h.recorder != nil {
		opts = append(opts, session.WithRecorder(h.recorder))
	}
	sess := session.New(h.logger.With("request_id", middleware.GetReqID(r.Context())), opts...)

	if err := sess.Run(ctx, transport{conn: conn}); err != nil {
		conn.Close(websocket.StatusPolicyViolation, closeReason(err))
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// transport adapts a websocket connection to session.Transport.
type transport struct {
	conn *websocket.Conn
}

func (t transport) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t transport) Send(ctx context.Context, v any) error {
	return wsjson.Write(ctx, t.conn, v)
}

func closeReason(err error) string {
	s := err.Error()
	if len(s) <= maxCloseReason {
		return s
	}
	i := maxCloseReason
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
