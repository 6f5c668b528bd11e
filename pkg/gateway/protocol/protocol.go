// Package protocol defines the JSON frames exchanged between a host UI and
// the assistant over the /v1/assistant WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ProtocolVersion1 = "1"

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

type HelloClient struct {
	Name     string `json:"name,omitempty"`
	Version  string `json:"version,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// ClientHello must be the first frame on a connection.
type ClientHello struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Client          HelloClient `json:"client,omitempty"`
}

// ClientOpen starts a voice session.
type ClientOpen struct {
	Type string `json:"type"`
}

// ClientClose ends the voice session.
type ClientClose struct {
	Type string `json:"type"`
}

// ClientText sends a typed chat message.
type ClientText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ClientFeedback answers or dismisses the post-call prompt. Liked is
// required unless Dismiss is set.
type ClientFeedback struct {
	Type    string `json:"type"`
	Liked   *bool  `json:"liked,omitempty"`
	Dismiss bool   `json:"dismiss,omitempty"`
}

// ClientNotificationsRead marks one notification, or all when ID is empty,
// as read.
type ClientNotificationsRead struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "hello":
		var msg ClientHello
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid hello frame", "")
		}
		if strings.TrimSpace(msg.ProtocolVersion) == "" {
			return nil, badRequest("hello.protocol_version is required", "protocol_version")
		}
		return msg, nil
	case "open":
		return ClientOpen{Type: typ}, nil
	case "close":
		return ClientClose{Type: typ}, nil
	case "text":
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text frame", "")
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, badRequest("text.text is required", "text")
		}
		return msg, nil
	case "feedback":
		var msg ClientFeedback
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid feedback frame", "")
		}
		if !msg.Dismiss && msg.Liked == nil {
			return nil, badRequest("feedback.liked is required unless dismiss is set", "liked")
		}
		return msg, nil
	case "notifications_read":
		var msg ClientNotificationsRead
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid notifications_read frame", "")
		}
		msg.ID = strings.TrimSpace(msg.ID)
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

type HelloAckLimits struct {
	MaxMessageBytes      int64 `json:"max_message_bytes"`
	MaxCommandsPerSecond int   `json:"max_commands_per_second,omitempty"`
}

type ServerHelloAck struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	ClientID        string          `json:"client_id"`
	Limits          *HelloAckLimits `json:"limits,omitempty"`
}

type Message struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`
}

type Notification struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Read     bool   `json:"read"`
}

// AssistantState is everything a host needs to render the assistant.
type AssistantState struct {
	Phase          string    `json:"phase"`
	Connecting     bool      `json:"connecting"`
	Active         bool      `json:"active"`
	Speaking       bool      `json:"speaking"`
	Error          bool      `json:"error"`
	Status         string    `json:"status"`
	TypedStatus    string    `json:"typed_status"`
	Messages       []Message `json:"messages"`
	FeedbackPrompt bool      `json:"feedback_prompt"`
}

type ServerState struct {
	Type          string         `json:"type"`
	Seq           int64          `json:"seq"`
	State         AssistantState `json:"state"`
	Notifications []Notification `json:"notifications,omitempty"`
	Unread        int            `json:"unread"`
}

type ServerError struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Close   bool           `json:"close,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ServerWarning struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
