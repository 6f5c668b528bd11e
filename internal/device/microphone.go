// Package device binds the audio pipeline to the host's sound hardware:
// miniaudio (malgo) for capture and oto for playback.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
)

const captureQueueSize = 32

// Microphone opens mono float32 capture at the model's input rate. The
// malgo context is created on first use and shared by every stream.
type Microphone struct {
	logger *slog.Logger

	mu   sync.Mutex
	mctx *malgo.AllocatedContext
}

func NewMicrophone(logger *slog.Logger) *Microphone {
	if logger == nil {
		logger = slog.Default()
	}
	return &Microphone{logger: logger}
}

func (m *Microphone) context() (*malgo.AllocatedContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mctx != nil {
		return m.mctx, nil
	}
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{ThreadPriority: malgo.ThreadPriorityRealtime}, func(msg string) {
		m.logger.Debug("miniaudio", "message", strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, err
	}
	m.mctx = mctx
	return mctx, nil
}

func (m *Microphone) Open(ctx context.Context) (audio.CaptureStream, error) {
	mctx, err := m.context()
	if err != nil {
		return nil, classifyDeviceError(err)
	}

	s := newCaptureStream(m.logger)
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = audio.InputSampleRate
	cfg.PeriodSizeInMilliseconds = 20

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: s.onData,
		Stop: s.onStop,
	})
	if err != nil {
		return nil, classifyDeviceError(err)
	}
	if err := ctx.Err(); err != nil {
		dev.Uninit()
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, classifyDeviceError(err)
	}
	s.device = dev
	m.logger.Debug("microphone opened", "sample_rate", audio.InputSampleRate, "frame_size", audio.FrameSize)
	return s, nil
}

// Close releases the malgo context. Streams must be closed first.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mctx == nil {
		return nil
	}
	err := m.mctx.Uninit()
	m.mctx.Free()
	m.mctx = nil
	return err
}

// classifyDeviceError maps backend failures onto the audio package's
// denied/unavailable split. Some backends only report a refused permission
// in the message text.
func classifyDeviceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, malgo.ErrAccessDenied) {
		return fmt.Errorf("%w: %v", audio.ErrMicDenied, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "permission") || strings.Contains(msg, "not allowed") {
		return fmt.Errorf("%w: %v", audio.ErrMicDenied, err)
	}
	return fmt.Errorf("%w: %v", audio.ErrMicUnavailable, err)
}

// captureStream frames device callbacks into fixed windows. Windows are
// dropped when the consumer falls behind.
type captureStream struct {
	logger *slog.Logger
	device *malgo.Device

	mu      sync.Mutex
	framer  *audio.Framer
	frames  chan []float32
	closed  bool
	dropped int

	closeOnce sync.Once
}

func newCaptureStream(logger *slog.Logger) *captureStream {
	s := &captureStream{logger: logger, frames: make(chan []float32, captureQueueSize)}
	s.framer = audio.NewFramer(audio.FrameSize, s.emit)
	return s
}

func (s *captureStream) Frames() <-chan []float32 { return s.frames }

func (s *captureStream) onData(_, input []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.framer.WriteFloat32LE(input)
}

// emit runs with s.mu held.
func (s *captureStream) emit(window []float32) {
	select {
	case s.frames <- window:
	default:
		s.dropped++
		if s.dropped == 1 || s.dropped%50 == 0 {
			s.logger.Warn("capture queue full, dropping window", "dropped", s.dropped)
		}
	}
}

func (s *captureStream) onStop() {
	s.finish()
}

func (s *captureStream) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.framer.Reset()
	close(s.frames)
}

func (s *captureStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.device != nil {
			err = s.device.Stop()
			s.device.Uninit()
		}
		s.finish()
	})
	return err
}
