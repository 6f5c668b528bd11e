package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/pj-assistant/pkg/gateway/apierror"
	"github.com/vango-go/pj-assistant/pkg/gateway/protocol"
)

const outboundPriorityQueueSize = 8

type Config struct {
	PingInterval        time.Duration
	WriteTimeout        time.Duration
	MaxCommandsPerSec   int
	CommandBurstSeconds int
}

type Dependencies struct {
	Conn      *websocket.Conn
	Assistant Assistant
	Inbox     Inbox
	Logger    *slog.Logger
	ClientID  string
	RequestID string
	// BaseContext outlives the connection; sessions opened by this client
	// are not tied to it staying connected.
	BaseContext context.Context
	Config      Config
	Now         func() time.Time
}

// Client is one attached host connection, after the hello handshake.
type Client struct {
	id        string
	requestID string
	conn      *websocket.Conn
	assistant Assistant
	inbox     Inbox
	logger    *slog.Logger
	cfg       Config
	base      context.Context

	ctx    context.Context
	cancel context.CancelFunc

	priority chan []byte
	dirty    chan struct{}
	seq      int64
	limiter  *commandLimiter
	opens    sync.WaitGroup
}

func NewClient(deps Dependencies) (*Client, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("conn is required")
	}
	if deps.Assistant == nil {
		return nil, fmt.Errorf("assistant is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	ctx, cancel := context.WithCancel(deps.BaseContext)
	return &Client{
		id:        deps.ClientID,
		requestID: deps.RequestID,
		conn:      deps.Conn,
		assistant: deps.Assistant,
		inbox:     deps.Inbox,
		logger:    deps.Logger.With("client_id", deps.ClientID),
		cfg:       deps.Config,
		base:      deps.BaseContext,
		ctx:       ctx,
		cancel:    cancel,
		priority:  make(chan []byte, outboundPriorityQueueSize),
		dirty:     make(chan struct{}, 1),
		limiter:   newCommandLimiter(deps.Now, deps.Config.MaxCommandsPerSec, deps.Config.CommandBurstSeconds),
	}, nil
}

func (c *Client) ID() string { return c.id }

// Cancel closes the connection with a normal close frame.
func (c *Client) Cancel() { c.cancel() }

// Push schedules a state frame. Pending pushes coalesce.
func (c *Client) Push() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

func (c *Client) SendWarning(code, message string) error {
	return c.enqueue(protocol.ServerWarning{Type: "warning", Code: code, Message: message})
}

// Run serves the connection until the host leaves or Cancel is called.
func (c *Client) Run() error {
	w := &outboundWriter{
		ws:           c.conn,
		ctx:          c.ctx,
		pingInterval: c.cfg.PingInterval,
		writeTimeout: c.cfg.WriteTimeout,
		priority:     c.priority,
		dirty:        c.dirty,
		render:       c.renderState,
	}
	writerDone := make(chan error, 1)
	go func() {
		err := w.Run()
		c.cancel()
		_ = c.conn.Close()
		writerDone <- err
	}()

	c.Push()
	readErr := c.readLoop()
	c.cancel()
	writeErr := <-writerDone
	c.opens.Wait()

	if writeErr != nil {
		return fmt.Errorf("write: %w", writeErr)
	}
	if readErr != nil && c.ctx.Err() == nil {
		return readErr
	}
	return nil
}

func (c *Client) readLoop() error {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || c.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if messageType != websocket.TextMessage {
			_ = c.sendError("bad_request", "binary frames are not supported", nil)
			continue
		}
		if !c.limiter.Allow() {
			_ = c.sendError("rate_limited", "too many commands", nil)
			continue
		}
		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			var decErr *protocol.DecodeError
			if errors.As(err, &decErr) {
				var details map[string]any
				if decErr.Param != "" {
					details = map[string]any{"param": decErr.Param}
				}
				_ = c.sendError(decErr.Code, decErr.Message, details)
			}
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg any) {
	switch m := msg.(type) {
	case protocol.ClientHello:
		_ = c.sendError("bad_request", "hello already received", nil)

	case protocol.ClientOpen:
		c.opens.Add(1)
		go func() {
			defer c.opens.Done()
			if err := c.assistant.Open(c.base); err != nil {
				c.logger.Info("open rejected", "error", err)
				c.sendAPIError(err)
			}
		}()

	case protocol.ClientClose:
		c.assistant.Close()

	case protocol.ClientText:
		c.assistant.SendTextMessage(m.Text)

	case protocol.ClientFeedback:
		if m.Dismiss {
			c.assistant.DismissFeedback()
			return
		}
		c.assistant.AnswerFeedback(c.ctx, *m.Liked)

	case protocol.ClientNotificationsRead:
		if c.inbox == nil {
			return
		}
		if m.ID == "" {
			c.inbox.MarkAllRead()
			return
		}
		if !c.inbox.MarkRead(m.ID) {
			_ = c.sendError("not_found", "notification not found", map[string]any{"id": m.ID})
		}
	}
}

func (c *Client) renderState() ([]byte, error) {
	c.seq++
	return json.Marshal(stateFrame(c.seq, c.assistant.Snapshot(), c.inbox))
}

func (c *Client) sendAPIError(err error) {
	apiErr, _ := apierror.FromError(err, c.requestID)
	code := apiErr.Code
	if strings.TrimSpace(code) == "" {
		code = string(apiErr.Type)
	}
	_ = c.sendError(code, apiErr.Message, nil)
}

func (c *Client) sendError(code, message string, details map[string]any) error {
	return c.enqueue(protocol.ServerError{Type: "error", Code: code, Message: message, Details: details})
}

func (c *Client) enqueue(frame any) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	select {
	case c.priority <- payload:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("priority queue full, dropping frame")
		return fmt.Errorf("priority queue full")
	}
}

// WriteError writes an error frame directly to conn and, when closeConn is
// set, a policy-violation close frame. Use it only before Run has started.
func WriteError(conn *websocket.Conn, code, message string, closeConn bool, details map[string]any) {
	_ = conn.WriteJSON(protocol.ServerError{Type: "error", Code: code, Message: message, Close: closeConn, Details: details})
	if closeConn {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), time.Now().Add(2*time.Second))
	}
}
