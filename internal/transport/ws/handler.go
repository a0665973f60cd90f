package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/core"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/metrics"
)

const (
	pongWait   = 120 * time.Second
	pingPeriod = 54 * time.Second
)

// Handler upgrades HTTP requests to websocket push sessions. The
// upgraded socket becomes the user's push channel; the read loop exists
// only to detect the close and fire the core disconnect hook.
type Handler struct {
	chat     *core.Chat
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a websocket session handler.
func NewHandler(chat *core.Chat, logger zerolog.Logger) *Handler {
	return &Handler{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Usernames are unauthenticated, origins equally so.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

// Serve handles GET /ws?user=<name>.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("user"))
	if username == "" {
		http.Error(w, `{"error":"user query parameter is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	channel := NewChannel(conn)

	// The request context dies with the handler; the session outlives
	// its login call.
	if err := h.chat.Login(context.Background(), username, channel); err != nil {
		h.logger.Error().Err(err).Str("user", username).Msg("login failed")
		conn.Close()
		return
	}

	metrics.WSConnections.Inc()
	h.logger.Info().Str("user", username).Str("remote", conn.RemoteAddr().String()).Msg("push channel bound")

	go h.ping(conn)
	h.readLoop(conn, username, channel)
}

// readLoop consumes inbound frames until the connection dies, then
// tears the session down. Disconnect only logs the user out if this
// channel is still the session's current one, so a stale socket closing
// after a re-login leaves the fresh session alone.
func (h *Handler) readLoop(conn *websocket.Conn, username string, channel *Channel) {
	defer func() {
		metrics.WSConnections.Dec()
		h.chat.Disconnect(context.Background(), username, channel)
		conn.Close()
		h.logger.Info().Str("user", username).Msg("push channel closed")
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) ping(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteWait)); err != nil {
			return
		}
	}
}
