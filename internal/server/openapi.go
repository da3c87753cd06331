package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "LaneRacer API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the LaneRacer quiz-racing game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /create_lobby
	createLobby, _ := r.NewOperationContext(http.MethodGet, "/create_lobby")
	createLobby.SetSummary("Create a lobby")
	createLobby.SetDescription("Creates a new game session and redirects the host to the lobby screen for its room code.")
	createLobby.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusFound))
	_ = r.AddOperation(createLobby)

	// POST /join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/join")
	postJoin.SetSummary("Join a lobby")
	postJoin.SetDescription("Form-encoded gameCode and username. Redirects the player to the lobby, or back to the start page when the code is unknown.")
	postJoin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postJoin)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Attach to a session")
	getWS.SetDescription("Upgrades to a WebSocket connection attached to a session. Query parameters: roomCode (required), isHost (default false), name (required for players). Messages are JSON envelopes {messageType, data}.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

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
