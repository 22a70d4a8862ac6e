// Package lobby serves the read-only JSON the start page needs: board
// presets, mine bounds for custom boards and aggregate game statistics.
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/minesweeper/internal/minesweeper"
	"github.com/playperu/minesweeper/internal/session"
	"github.com/playperu/minesweeper/internal/stats"
)

type PresetResponse struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	Mines    int    `json:"mines"`
	MinMines int    `json:"minMines"`
	MaxMines int    `json:"maxMines"`
}

type BoundsResponse struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	MinMines int `json:"minMines"`
	MaxMines int `json:"maxMines"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Subscriber hands out streams of JSON-encoded finished-game events.
type Subscriber interface {
	Subscribe() chan []byte
	Unsubscribe(ch chan []byte)
}

type Handler struct {
	logger *slog.Logger
	stats  stats.Summarizer
	feed   Subscriber
	limits session.Limits
}

// NewHandler builds the lobby API. summarizer and feed may be nil, in which
// case the matching endpoints report 503.
func NewHandler(logger *slog.Logger, summarizer stats.Summarizer, feed Subscriber, limits session.Limits) *Handler {
	return &Handler{logger: logger, stats: summarizer, feed: feed, limits: limits}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/presets", h.listPresets)
	r.Get("/presets/{name}", h.getPreset)
	r.Get("/bounds", h.bounds)
	r.Get("/stats", h.summary)
	r.Get("/stats/events", h.events)
	return r
}

func (h *Handler) listPresets(w http.ResponseWriter, _ *http.Request) {
	presets := minesweeper.Presets()
	out := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		if p.Height > h.limits.MaxHeight || p.Width > h.limits.MaxWidth {
			continue
		}
		out = append(out, toPreset(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPreset(w http.ResponseWriter, r *http.Request) {
	// chi matches on the raw path when it holds escapes the default
	// encoding would not produce, so labels may arrive still escaped.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid preset name")
		return
	}
	p, err := minesweeper.PresetByName(name)
	if errors.Is(err, minesweeper.ErrUnknownPreset) {
		writeError(w, http.StatusNotFound, "preset not found")
		return
	}
	writeJSON(w, http.StatusOK, toPreset(p))
}

func (h *Handler) bounds(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.Atoi(r.URL.Query().Get("height"))
	if err != nil || height <= 0 {
		writeError(w, http.StatusBadRequest, "height must be a positive integer")
		return
	}
	width, err := strconv.Atoi(r.URL.Query().Get("width"))
	if err != nil || width <= 0 {
		writeError(w, http.StatusBadRequest, "width must be a positive integer")
		return
	}
	if height > h.limits.MaxHeight || width > h.limits.MaxWidth {
		writeError(w, http.StatusBadRequest, "board exceeds the maximum size")
		return
	}

	lo, hi := minesweeper.MineBounds(height, width)
	writeJSON(w, http.StatusOK, BoundsResponse{Height: height, Width: width, MinMines: lo, MaxMines: hi})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "statistics unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sum, err := h.stats.Summary(ctx)
	if err != nil {
		h.logger.Error("loading stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sum.Best == nil {
		sum.Best = []stats.BestTime{}
	}
	writeJSON(w, http.StatusOK, sum)
}

// events streams finished games as server-sent events until the client
// goes away.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "live results unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	ch := h.feed.Subscribe()
	defer h.feed.Unsubscribe(ch)

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(w, "event: result\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func toPreset(p minesweeper.Preset) PresetResponse {
	lo, hi := minesweeper.MineBounds(p.Height, p.Width)
	return PresetResponse{
		Name:     p.Name,
		Label:    p.Label,
		Height:   p.Height,
		Width:    p.Width,
		Mines:    p.Mines,
		MinMines: lo,
		MaxMines: hi,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
