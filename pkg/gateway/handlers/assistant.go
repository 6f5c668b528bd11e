package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/pj-assistant/pkg/gateway/apierror"
	"github.com/vango-go/pj-assistant/pkg/gateway/bridge"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	"github.com/vango-go/pj-assistant/pkg/gateway/lifecycle"
	"github.com/vango-go/pj-assistant/pkg/gateway/mw"
	"github.com/vango-go/pj-assistant/pkg/gateway/protocol"
	"github.com/vango-go/pj-assistant/pkg/gateway/sessions"
)

// AssistantHandler attaches a host to the shared assistant over /v1/assistant.
type AssistantHandler struct {
	Config      config.Config
	Assistant   bridge.Assistant
	Inbox       bridge.Inbox
	Logger      *slog.Logger
	Lifecycle   *lifecycle.Lifecycle
	Clients     *sessions.Tracker
	BaseContext context.Context
}

func (h AssistantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	if h.Lifecycle.IsDraining() {
		apierror.WriteJSON(w, http.StatusServiceUnavailable, &apierror.Error{Type: apierror.ErrOverloaded, Message: "server is draining", Code: "draining", RequestID: reqID})
		return
	}
	if !mw.OriginAllowed(h.Config, r.Header.Get("Origin")) {
		apierror.WriteJSON(w, http.StatusForbidden, &apierror.Error{Type: apierror.ErrPermission, Message: "origin is not allowed", Param: "Origin", RequestID: reqID})
		return
	}
	if h.Config.WSMaxClients > 0 && h.Clients.Count() >= h.Config.WSMaxClients {
		apierror.WriteJSON(w, http.StatusServiceUnavailable, &apierror.Error{Type: apierror.ErrOverloaded, Message: "too many connected clients", Code: "too_many_clients", RequestID: reqID})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.WSMaxMessageBytes > 0 {
		conn.SetReadLimit(h.Config.WSMaxMessageBytes)
	}

	handshakeTimeout := h.Config.WSHandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 5 * time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	messageType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		bridge.WriteError(conn, "bad_request", "failed to read hello", true, nil)
		return
	}
	if messageType != websocket.TextMessage {
		bridge.WriteError(conn, "bad_request", "first frame must be hello", true, nil)
		return
	}
	decoded, err := protocol.DecodeClientMessage(firstFrame)
	if err != nil {
		bridge.WriteError(conn, "bad_request", "invalid hello frame", true, nil)
		return
	}
	hello, ok := decoded.(protocol.ClientHello)
	if !ok {
		bridge.WriteError(conn, "bad_request", "first frame must be hello", true, nil)
		return
	}
	if strings.TrimSpace(hello.ProtocolVersion) != protocol.ProtocolVersion1 {
		bridge.WriteError(conn, "unsupported_version", "unsupported protocol_version", true, map[string]any{"supported": protocol.ProtocolVersion1})
		return
	}

	clientID := "c_" + randHex(8)
	ack := protocol.ServerHelloAck{
		Type:            "hello_ack",
		ProtocolVersion: protocol.ProtocolVersion1,
		ClientID:        clientID,
		Limits: &protocol.HelloAckLimits{
			MaxMessageBytes:      h.Config.WSMaxMessageBytes,
			MaxCommandsPerSecond: h.Config.WSMaxCommandsPerSec,
		},
	}
	if err := conn.WriteJSON(ack); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c, err := bridge.NewClient(bridge.Dependencies{
		Conn:        conn,
		Assistant:   h.Assistant,
		Inbox:       h.Inbox,
		Logger:      logger,
		ClientID:    clientID,
		RequestID:   reqID,
		BaseContext: h.BaseContext,
		Config: bridge.Config{
			PingInterval:        h.Config.WSPingInterval,
			WriteTimeout:        h.Config.WSWriteTimeout,
			MaxCommandsPerSec:   h.Config.WSMaxCommandsPerSec,
			CommandBurstSeconds: h.Config.WSCommandBurstSecond,
		},
	})
	if err != nil {
		bridge.WriteError(conn, "internal", "failed to attach client", true, nil)
		return
	}

	unregister := h.Clients.Register(clientID, sessions.Handle{
		Cancel: c.Cancel,
		Push:   c.Push,
		Warn:   c.SendWarning,
	})
	defer unregister()

	logger.Info("host attached", "client_id", clientID, "request_id", reqID, "client", hello.Client.Name)
	if err := c.Run(); err != nil {
		logger.Warn("host connection ended with error", "client_id", clientID, "request_id", reqID, "error", err)
		return
	}
	logger.Info("host detached", "client_id", clientID, "request_id", reqID)
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
