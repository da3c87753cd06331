package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/quizrally/laneracer/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, registry *game.Registry, db *sql.DB, frontendURL string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("LaneRacer API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Get("/ws", handleWS(logger, registry, frontendURL))
	r.Get("/create_lobby", handleCreateLobby(logger, registry, frontendURL))
	r.Post("/join", handleJoin(logger, registry, frontendURL))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<p>You are accessing the backend, frontend at <a href=%q>%s</a></p>`,
			frontendURL, frontendURL)
	})
}
