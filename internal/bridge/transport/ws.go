// Package transport implements the wire-level tick stream a live
// VendorSDK speaks to the broker over — a bidirectional JSON-over-
// websocket stream standing in for the broker's binary protobuf/SSL
// protocol described abstractly in this system's external interfaces.
package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is one inbound frame: a tick or an external account event.
type Envelope struct {
	Type    string          `json:"type"` // "tick" | "fill" | "external_close"
	Symbol  string          `json:"symbol"`
	Time    int64           `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// Conn wraps a single websocket connection to the broker's streaming
// endpoint, reconnect and backoff are the owning VendorSDK's concern —
// this type just speaks the wire format.
type Conn struct {
	url  string
	conn *websocket.Conn
}

func Dial(ctx context.Context, rawURL string) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	c, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Conn{url: rawURL, conn: c}, nil
}

func (c *Conn) ReadEnvelope() (Envelope, error) {
	var env Envelope
	err := c.conn.ReadJSON(&env)
	return env, err
}

func (c *Conn) SendJSON(v any) error {
	return c.conn.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
