package gemini

import (
	"errors"
	"io"
	"net"

	"github.com/gorilla/websocket"

	"github.com/vango-go/pj-assistant/pkg/core/live"
)

// ErrChannelClosed is returned by sends after Close.
var ErrChannelClosed = errors.New("gemini: channel closed")

// classifyReceiveError maps a failed Receive into the terminal channel event.
// Close frames with a normal or going-away code are clean; any other close
// code and a dropped connection are unclean; everything else is a runtime
// error.
func classifyReceiveError(err error) live.Event {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return &live.ChannelClosedEvent{Clean: true, Code: closeErr.Code, Reason: closeErr.Text}
		default:
			return &live.ChannelClosedEvent{Code: closeErr.Code, Reason: closeErr.Text}
		}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return &live.ChannelClosedEvent{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &live.ChannelClosedEvent{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
	}
	return &live.ChannelErrorEvent{Err: err}
}
