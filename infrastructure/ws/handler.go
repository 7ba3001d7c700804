package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campus-chat/auth"
	"campus-chat/contract"
	"campus-chat/domain"
	"campus-chat/errors"
	"campus-chat/runtime"
	"campus-chat/services"
)

const handshakeWait = 30 * time.Second

// Handler upgrades HTTP requests and drives each connection through its
// lifecycle: Connected (pre-handshake), Joined (after user_join), and
// Disconnected, where the registry entries are reaped. No session resume
// exists; a reconnecting client redoes the full handshake.
type Handler struct {
	log           *slog.Logger
	orchestrator  *runtime.Orchestrator
	membership    services.IMembershipService
	registry      contract.IRegistry
	authenticator *auth.Authenticator // nil means the handshake identity is trusted as-is
	upgrader      websocket.Upgrader
	bufferSize    int
}

func NewHandler(log *slog.Logger, orchestrator *runtime.Orchestrator,
	membership services.IMembershipService, registry contract.IRegistry,
	authenticator *auth.Authenticator, bufferSize int) *Handler {
	return &Handler{
		log:           log,
		orchestrator:  orchestrator,
		membership:    membership,
		registry:      registry,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		bufferSize: bufferSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	sink := NewSink(h.bufferSize)

	// Disconnect reaper: presence state is cleared whenever the transport
	// closes, even mid-handshake. A failed membership sync has already
	// registered the connection, so the reap cannot wait for a successful
	// join. No-op for connections that never registered or were superseded.
	defer h.registry.RemoveByConnection(connectionID)

	userID, username, ok := h.handshake(r.Context(), conn, connectionID, sink)
	if !ok {
		h.log.Debug("Client left before joining", "connection", connectionID)
		return
	}

	h.log.Info("Client joined", "user", userID, "connection", connectionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commands := make(chan domain.Command, h.bufferSize)
	h.orchestrator.StartSession(ctx, userID, username, commands, sink)

	client := NewClient(h.log, conn, sink, commands, connectionID, userID)
	go client.WritePump(ctx)
	client.ReadPump(ctx)

	// The read pump returned, the transport session is over. Cancel the
	// session worker; the deferred reap clears presence state.
	cancel()
	h.log.Info("Client disconnected", "user", userID, "connection", connectionID)
}

// handshake blocks until a valid user_join frame arrives and membership
// sync succeeds. A store failure leaves the connection open and attached
// to no rooms; the client may retry user_join on the same connection.
func (h *Handler) handshake(ctx context.Context, conn *websocket.Conn,
	connectionID string, sink *Sink) (userID, username string, ok bool) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))

		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			h.log.Debug("Connection closed before join", "connection", connectionID)
			return "", "", false
		}
		if frame.Event != eventUserJoin {
			h.writeError(conn, "validation_error", "expected user_join")
			continue
		}

		var payload userJoinPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.UserID == "" {
			h.writeError(conn, "validation_error", "user_join requires userId and username")
			continue
		}

		userID, username = payload.UserID, payload.Username
		if h.authenticator != nil {
			claims, err := h.authenticator.ValidateToken(payload.Token)
			if err != nil {
				code, message := errors.ToClientError(err)
				h.writeError(conn, code, message)
				continue
			}
			// Claims win over whatever the client typed in
			userID = claims.UserID
			if claims.Username != "" {
				username = claims.Username
			}
		}

		if _, err := h.membership.Sync(ctx, userID, username, connectionID, sink); err != nil {
			h.log.Warn("Membership sync failed", "user", userID, "error", err)
			h.writeError(conn, "store_error", "could not load group memberships")
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.writeFrame(conn, eventUserJoined, map[string]any{"success": true})
		return userID, username, true
	}
}

func (h *Handler) writeError(conn *websocket.Conn, code, message string) {
	h.writeFrame(conn, eventError, map[string]any{"code": code, "message": message})
}

func (h *Handler) writeFrame(conn *websocket.Conn, name string, payload any) {
	frame, err := makeFrame(name, payload)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Debug("Handshake write failed", "error", err)
	}
}
