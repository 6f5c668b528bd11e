// Package live runs the realtime voice assistant session.
//
// An Assistant owns at most one session at a time. A session streams
// microphone windows to a remote conversational model over a Channel and
// plays back the synthesized speech it receives, while transcript deltas are
// accumulated into per-turn buffers and flushed as messages when the model
// completes its turn.
//
// # State Machine
//
//	IDLE → CONNECTING → ACTIVE → CLOSED
//	            │          │
//	            └──────────┴───→ ERROR
//
// CLOSED and ERROR are terminal for a session; Open starts a new one.
// Speaking is a separate flag that may be set while ACTIVE.
//
// # Event Routing
//
// Channel events, microphone windows and host commands are all processed by
// one goroutine per session, in arrival order:
//
//	Mic → Encode → Channel.SendAudio
//	Channel.Events → transcript buffers | tool dispatch | playback scheduler
//
// Every terminal path (user close, clean remote close, unclean close, channel
// error, local setup failure) goes through the same disconnect, which
// releases the microphone, the channel and all scheduled playback.
package live
