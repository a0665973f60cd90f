package relay

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a live push connection. Events arrive on Events until the
// socket closes, after which the channel is closed.
type Conn struct {
	ws     *websocket.Conn
	Events <-chan Event
}

// Connect opens a websocket session for the user. The server treats
// the connection as a login: pending events are replayed and new ones
// are pushed live for as long as the socket stays open.
func (c *Client) Connect(username string) (*Conn, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = "user=" + url.QueryEscape(username)

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	conn := &Conn{ws: ws, Events: events}

	go func() {
		defer close(events)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			events <- ev
		}
	}()

	return conn, nil
}

// Close shuts the live connection down. The server sees this as a
// disconnect and marks the user offline.
func (c *Conn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
