package live

import (
	"errors"
	"fmt"
)

// ErrSessionBusy is returned by Open while a session is connecting or active.
var ErrSessionBusy = errors.New("live: a session is already connecting or active")

// MicAccessKind distinguishes a refused permission from a missing device.
type MicAccessKind string

const (
	MicDenied      MicAccessKind = "denied"
	MicUnavailable MicAccessKind = "unavailable"
)

// MicAccessError means the microphone could not be opened.
type MicAccessError struct {
	Kind MicAccessKind
	Err  error
}

func (e *MicAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("live: microphone %s", e.Kind)
	}
	return fmt.Sprintf("live: microphone %s: %v", e.Kind, e.Err)
}

func (e *MicAccessError) Unwrap() error { return e.Err }

func (e *MicAccessError) UserMessage() string {
	if e.Kind == MicDenied {
		return "Microfone bloqueado. Por favor, permita o acesso."
	}
	return "Não foi possível encontrar um microfone."
}

// ChannelOpenError means the session could not be set up: the remote
// channel refused to open or a local resource failed first.
type ChannelOpenError struct {
	Err error
}

func (e *ChannelOpenError) Error() string {
	return fmt.Sprintf("live: open channel: %v", e.Err)
}

func (e *ChannelOpenError) Unwrap() error { return e.Err }

func (e *ChannelOpenError) UserMessage() string { return "Serviço indisponível." }

// ChannelRuntimeError is a failure reported by an open channel.
type ChannelRuntimeError struct {
	Err error
}

func (e *ChannelRuntimeError) Error() string {
	return fmt.Sprintf("live: channel failed: %v", e.Err)
}

func (e *ChannelRuntimeError) Unwrap() error { return e.Err }

func (e *ChannelRuntimeError) UserMessage() string {
	return "Falha na conexão. Verifique sua internet."
}

// UncleanCloseError is a remote close that was not a normal closure.
type UncleanCloseError struct {
	Code   int
	Reason string
}

func (e *UncleanCloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("live: connection closed uncleanly (code %d)", e.Code)
	}
	return fmt.Sprintf("live: connection closed uncleanly (code %d): %s", e.Code, e.Reason)
}

func (e *UncleanCloseError) UserMessage() string { return "Conexão perdida." }

// UserMessage returns the customer-facing text for a terminal error.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return "Falha na conexão. Verifique sua internet."
}
