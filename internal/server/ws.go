package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/quizrally/laneracer/internal/game"
)

// wsConn adapts a websocket connection to game.Conn. Writes are serialized;
// nhooyr allows only one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	ctx  context.Context

	mu sync.Mutex
}

func (c *wsConn) Send(messageType string, data any) error {
	frame := struct {
		MessageType string `json:"messageType"`
		Data        any    `json:"data,omitempty"`
	}{messageType, data}

	buf, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, buf)
}

func (c *wsConn) Close(reason string) {
	c.conn.Close(websocket.StatusNormalClosure, reason)
}

// handleWS attaches a websocket connection to a session. Query parameters:
// roomCode (required), isHost (default false), name (required for players).
// On a bad request the peer is sent a redirect back to the frontend and the
// connection is closed after a short grace delay, mirroring what the
// frontends expect.
func handleWS(logger *slog.Logger, registry *game.Registry, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		wc := &wsConn{conn: conn, ctx: r.Context()}

		q := r.URL.Query()
		roomCode := q.Get("roomCode")
		isHost := q.Get("isHost") == "true"
		name := q.Get("name")

		reject := func(reason string) {
			logger.Error("rejecting websocket connection", "reason", reason, "room", roomCode)
			wc.Send("redirect", frontendURL+"/")
			time.Sleep(time.Second)
			conn.Close(websocket.StatusPolicyViolation, reason)
		}

		if roomCode == "" {
			reject("roomCode not set")
			return
		}
		if !isHost && name == "" {
			reject("player connected without a name")
			return
		}

		sess, ok := registry.Get(roomCode)
		if !ok {
			reject("room does not exist")
			return
		}

		if isHost {
			sess.SetHost(wc)
		} else {
			sess.Join(name, wc)
		}

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				logger.Debug("websocket read ended", "room", roomCode, "error", err)
				if isHost {
					sess.HostDisconnected(wc)
				} else {
					sess.PlayerDisconnected(name, wc)
				}
				return
			}

			var env game.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				wc.Send(game.TypeBadMessage, game.BadMessage{Reason: "invalid message frame"})
				continue
			}

			if isHost {
				sess.HandleHost(env)
			} else {
				sess.HandlePlayer(name, env, wc)
			}
		}
	}
}
