package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/minesweeper/internal/handler/health"
	"github.com/playperu/minesweeper/internal/handler/lobby"
	"github.com/playperu/minesweeper/internal/stats"
)

type presetPath struct {
	Name string `path:"name" description:"Preset name (small, medium, hard, extreme) or its label."`
}

type boundsQuery struct {
	Height int `query:"height" required:"true" minimum:"1"`
	Width  int `query:"width" required:"true" minimum:"1"`
}

const playDescription = `Upgrades to a WebSocket carrying the game protocol as JSON text frames.

The first message must be {"type":"start","start":[row,col],"mines":n,"height":h,"width":w}.
After that: {"type":"click"|"flag"|"remove_flag"|"check_neighbours","cell":[row,col]}.

Server messages are {"status":"okay"|"game_over"|"win"|"refused","cells":{...}}.
"okay" groups cells under "empty" and "open1".."open8"; "game_over" lists
"oops" and every "mine". A protocol error is sent as
{"error":"...","status_code":400} before the connection is closed.`

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Minesweeper API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Single-player Minesweeper played over a WebSocket.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/play
	getPlay, _ := r.NewOperationContext(http.MethodGet, "/ws/play")
	getPlay.SetSummary("Play a game")
	getPlay.SetDescription(playDescription)
	getPlay.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getPlay)

	// GET /api/presets
	listPresets, _ := r.NewOperationContext(http.MethodGet, "/api/presets")
	listPresets.SetSummary("List presets")
	listPresets.SetDescription("Built-in board sizes with the accepted mine range for each.")
	listPresets.AddRespStructure([]lobby.PresetResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPresets)

	// GET /api/presets/{name}
	getPreset, _ := r.NewOperationContext(http.MethodGet, "/api/presets/{name}")
	getPreset.SetSummary("Get preset")
	getPreset.AddReqStructure(presetPath{})
	getPreset.AddRespStructure(lobby.PresetResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPreset.AddRespStructure(lobby.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPreset)

	// GET /api/bounds
	getBounds, _ := r.NewOperationContext(http.MethodGet, "/api/bounds")
	getBounds.SetSummary("Mine bounds")
	getBounds.SetDescription("Inclusive mine range accepted for a custom board: 10% to 35% of its cells.")
	getBounds.AddReqStructure(boundsQuery{})
	getBounds.AddRespStructure(lobby.BoundsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBounds.AddRespStructure(lobby.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBounds)

	// GET /api/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/stats")
	getStats.SetSummary("Game statistics")
	getStats.SetDescription("Finished-game counts and the best winning time per board size.")
	getStats.AddRespStructure(stats.Summary{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(lobby.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getStats)

	// GET /api/stats/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/stats/events")
	getEvents.SetSummary("Live results")
	getEvents.SetDescription("Server-Sent Events stream; every finished game is sent as an event named result.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(lobby.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
