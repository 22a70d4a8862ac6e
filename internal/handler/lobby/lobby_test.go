package lobby_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/minesweeper/internal/handler/lobby"
	"github.com/playperu/minesweeper/internal/session"
	"github.com/playperu/minesweeper/internal/stats"
)

type fakeSummarizer struct {
	sum stats.Summary
	err error
}

func (f fakeSummarizer) Summary(context.Context) (stats.Summary, error) { return f.sum, f.err }

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListPresets(t *testing.T) {
	h := lobby.NewHandler(slog.Default(), nil, nil, session.DefaultLimits).Routes()
	rec := get(t, h, "/presets")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []lobby.PresetResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 4)
	assert.Equal(t, "small", got[0].Name)
	assert.Equal(t, lobby.PresetResponse{
		Name: "small", Label: "Small: 9×9, 10 mines",
		Height: 9, Width: 9, Mines: 10, MinMines: 9, MaxMines: 28,
	}, got[0])

	for _, p := range got {
		assert.GreaterOrEqual(t, p.Mines, p.MinMines, p.Name)
		assert.LessOrEqual(t, p.Mines, p.MaxMines, p.Name)
	}
}

func TestListPresets_Limits(t *testing.T) {
	h := lobby.NewHandler(slog.Default(), nil, nil, session.Limits{MaxHeight: 16, MaxWidth: 16}).Routes()
	rec := get(t, h, "/presets")

	var got []lobby.PresetResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "medium", got[1].Name)
}

func TestGetPreset(t *testing.T) {
	h := lobby.NewHandler(slog.Default(), nil, nil, session.DefaultLimits).Routes()

	tests := []struct {
		name       string
		preset     string
		wantStatus int
		wantMines  int
	}{
		{"by name", "hard", http.StatusOK, 99},
		{"by label", "Extreme: 24×30, 160 mines", http.StatusOK, 160},
		{"unknown", "impossible", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/presets/"+url.PathEscape(tt.preset))
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got lobby.PresetResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantMines, got.Mines)
		})
	}
}

func TestBounds(t *testing.T) {
	h := lobby.NewHandler(slog.Default(), nil, nil, session.DefaultLimits).Routes()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantMin    int
		wantMax    int
	}{
		{"small", "height=9&width=9", http.StatusOK, 9, 28},
		{"ten by ten", "height=10&width=10", http.StatusOK, 10, 35},
		{"single row", "height=1&width=7", http.StatusOK, 1, 2},
		{"missing width", "height=9", http.StatusBadRequest, 0, 0},
		{"negative", "height=-1&width=9", http.StatusBadRequest, 0, 0},
		{"not a number", "height=x&width=9", http.StatusBadRequest, 0, 0},
		{"too large", "height=101&width=9", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/bounds?"+tt.query)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				var e lobby.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
				assert.NotEmpty(t, e.Error)
				return
			}
			var got lobby.BoundsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantMin, got.MinMines)
			assert.Equal(t, tt.wantMax, got.MaxMines)
		})
	}
}

func TestStats(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		sum := stats.Summary{
			Played: 3, Won: 1, Lost: 1, Abandoned: 1,
			Best: []stats.BestTime{{Height: 9, Width: 9, Mines: 10, DurationMS: 31_000}},
		}
		h := lobby.NewHandler(slog.Default(), fakeSummarizer{sum: sum}, nil, session.DefaultLimits).Routes()
		rec := get(t, h, "/stats")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"played": 3, "won": 1, "lost": 1, "abandoned": 1,
			"best": [{"height": 9, "width": 9, "mines": 10, "durationMs": 31000}]
		}`, rec.Body.String())
	})

	t.Run("empty", func(t *testing.T) {
		h := lobby.NewHandler(slog.Default(), fakeSummarizer{}, nil, session.DefaultLimits).Routes()
		rec := get(t, h, "/stats")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"played":0,"won":0,"lost":0,"abandoned":0,"best":[]}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		h := lobby.NewHandler(slog.Default(), fakeSummarizer{err: errors.New("locked")}, nil, session.DefaultLimits).Routes()
		rec := get(t, h, "/stats")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		h := lobby.NewHandler(slog.Default(), nil, nil, session.DefaultLimits).Routes()
		rec := get(t, h, "/stats")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStatsEvents(t *testing.T) {
	feed := stats.NewFeed()
	h := lobby.NewHandler(slog.Default(), nil, feed, session.DefaultLimits)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stats/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return feed.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, feed.Record(ctx, stats.Result{
		ID: "g1", Height: 9, Width: 9, Mines: 10, Outcome: stats.Won,
		StartedAt: start, EndedAt: start.Add(2 * time.Second),
	}))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: result", lines[0])

	var ev stats.FeedEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &ev))
	assert.Equal(t, "g1", ev.ID)
	assert.Equal(t, int64(2000), ev.DurationMS)

	cancel()
	assert.Eventually(t, func() bool { return feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStatsEventsDisabled(t *testing.T) {
	h := lobby.NewHandler(slog.Default(), nil, nil, session.DefaultLimits).Routes()
	rec := get(t, h, "/stats/events")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
