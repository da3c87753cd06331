package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/quizrally/laneracer/internal/game"
)

// handleCreateLobby creates a fresh session and sends the host to the lobby
// screen for its code.
func handleCreateLobby(logger *slog.Logger, registry *game.Registry, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := registry.Create(context.WithoutCancel(r.Context()))
		logger.Info("lobby created", "room", sess.Code())

		url := fmt.Sprintf("%s/hostlobby?roomCode=%s&host=true", frontendURL, sess.Code())
		http.Redirect(w, r, url, http.StatusFound)
	}
}

// handleJoin redirects a player to the lobby for the code they typed, or
// back to the start page when the code is unknown.
func handleJoin(logger *slog.Logger, registry *game.Registry, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}

		code := strings.TrimSpace(r.FormValue("gameCode"))
		username := strings.TrimSpace(r.FormValue("username"))

		if _, ok := registry.Get(code); !ok || username == "" {
			logger.Info("join rejected", "room", code)
			http.Redirect(w, r, frontendURL+"/?error=wrongCode", http.StatusFound)
			return
		}

		url := fmt.Sprintf("%s/lobby?roomCode=%s&host=false&username=%s",
			frontendURL, code, neturl.QueryEscape(username))
		http.Redirect(w, r, url, http.StatusFound)
	}
}
