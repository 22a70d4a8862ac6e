package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, staticDir string, mount func(r chi.Router)) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())

	if mount != nil {
		mount(r)
	}

	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			logger.Info("serving static pages", "dir", staticDir)
			r.NotFound(handleStatic(staticDir))
			return
		}
		logger.Warn("static directory not found, pages disabled", "dir", staticDir)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func handleSwaggerUI() http.Handler {
	return v5emb.New("Minesweeper API", "/openapi.json", "/docs")
}
