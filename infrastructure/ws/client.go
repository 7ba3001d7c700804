package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"campus-chat/domain"
	"campus-chat/domain/event"
	"campus-chat/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client owns one live WebSocket connection after a successful handshake.
// The read pump feeds the session worker's command channel; the write pump
// drains the connection's sink.
type Client struct {
	conn         *websocket.Conn
	sink         *Sink
	commands     chan<- domain.Command
	connectionID string
	userID       string
	log          *slog.Logger
}

func NewClient(log *slog.Logger, conn *websocket.Conn, sink *Sink,
	commands chan<- domain.Command, connectionID, userID string) *Client {
	return &Client{
		conn:         conn,
		sink:         sink,
		commands:     commands,
		connectionID: connectionID,
		userID:       userID,
		log:          log,
	}
}

// ReadPump decodes inbound frames into commands until the connection
// closes. Malformed frames produce an error frame on the sink; the
// connection survives them. Closing the command channel on exit lets the
// session worker finish its in-flight command and stop cleanly.
func (c *Client) ReadPump(ctx context.Context) {
	defer close(c.commands)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket read error", "user", c.userID, "error", err)
			} else {
				c.log.Debug("WebSocket closed", "user", c.userID)
			}
			return
		}

		cmd, err := DecodeCommand(frame)
		if err != nil {
			code, message := errors.ToClientError(err)
			_ = c.sink.Consume(ctx, event.OperationFailed{Code: code, Message: message})
			continue
		}

		select {
		case c.commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump serializes every event addressed to this connection and keeps
// the connection alive with periodic pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case evt := <-c.sink.ConnectedUserEvent:
			frame, err := EncodeEvent(evt)
			if err != nil {
				c.log.Debug("Skipping unencodable event", "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				c.log.Debug("WebSocket write error", "user", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("WebSocket ping error", "user", c.userID, "error", err)
				return
			}
		}
	}
}
