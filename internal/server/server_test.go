package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/quizrally/laneracer/internal/database"
	"github.com/quizrally/laneracer/internal/game"
	"github.com/quizrally/laneracer/internal/migrations"
	"github.com/quizrally/laneracer/internal/question"
)

const testFrontend = "http://frontend.test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(t *testing.T) (*chi.Mux, *game.Registry, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	selector, err := question.NewSelector(ctx, question.NewRepository(db))
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	logger := testLogger()
	registry := game.NewRegistry(game.Config{}, logger, selector)

	r := chi.NewRouter()
	addRoutes(r, logger, registry, db, testFrontend)
	return r, registry, db
}

func TestCreateLobbyRedirect(t *testing.T) {
	r, registry, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/create_lobby", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, testFrontend+"/hostlobby?") {
		t.Fatalf("location = %q, want host lobby redirect", loc)
	}

	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("parsing location: %v", err)
	}
	code := u.Query().Get("roomCode")
	if code == "" {
		t.Fatal("redirect missing roomCode")
	}
	if _, ok := registry.Get(code); !ok {
		t.Errorf("session %q not registered", code)
	}
}

func TestJoinRedirectsToLobby(t *testing.T) {
	r, registry, _ := testRouter(t)
	sess := registry.Create(context.Background())

	form := url.Values{"gameCode": {sess.Code()}, "username": {"ana"}}
	req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "/lobby?roomCode="+sess.Code()) {
		t.Errorf("location = %q, want player lobby for %s", loc, sess.Code())
	}
	if !strings.Contains(loc, "username=ana") {
		t.Errorf("location = %q, want username forwarded", loc)
	}
}

func TestJoinUnknownCodeRedirectsBack(t *testing.T) {
	r, _, _ := testRouter(t)

	form := url.Values{"gameCode": {"0000"}, "username": {"ana"}}
	req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != testFrontend+"/?error=wrongCode" {
		t.Errorf("location = %q, want wrongCode redirect", loc)
	}
}

func TestWSAttachHostAndPlayer(t *testing.T) {
	r, registry, _ := testRouter(t)
	sess := registry.Create(context.Background())

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsBase := "ws" + srv.URL[len("http"):] + "/ws"

	host, _, err := websocket.Dial(ctx, wsBase+"?roomCode="+sess.Code()+"&isHost=true", nil)
	if err != nil {
		t.Fatalf("host dial: %v", err)
	}
	defer host.CloseNow()

	// Give the host handler a moment to attach before the player joins, so
	// the userJoined notification has somewhere to go.
	time.Sleep(200 * time.Millisecond)

	player, _, err := websocket.Dial(ctx, wsBase+"?roomCode="+sess.Code()+"&name=ana", nil)
	if err != nil {
		t.Fatalf("player dial: %v", err)
	}
	defer player.CloseNow()

	// The host hears about the join.
	_, data, err := host.Read(ctx)
	if err != nil {
		t.Fatalf("host read: %v", err)
	}
	var env game.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if env.MessageType != game.TypeUserJoined {
		t.Errorf("messageType = %q, want userJoined", env.MessageType)
	}

	var joined game.UserJoined
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatalf("decoding userJoined: %v", err)
	}
	if joined.Username != "ana" || joined.UserCount != 1 {
		t.Errorf("userJoined = %+v, want ana/1", joined)
	}
}

func TestWSRejectsUnknownRoom(t *testing.T) {
	r, _, _ := testRouter(t)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws?roomCode=0000&isHost=true"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env game.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if env.MessageType != "redirect" {
		t.Errorf("messageType = %q, want redirect", env.MessageType)
	}
}
