package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Microphone access failures. Device backends wrap one of these so callers
// can tell a refused permission from a missing device.
var (
	ErrMicDenied      = errors.New("audio: microphone access denied")
	ErrMicUnavailable = errors.New("audio: microphone unavailable")
)

// Microphone opens capture streams of FrameSize windows at InputSampleRate.
type Microphone interface {
	Open(ctx context.Context) (CaptureStream, error)
}

// CaptureStream delivers capture windows until closed. Frames is closed
// after Close returns or when the device stops.
type CaptureStream interface {
	Frames() <-chan []float32
	Close() error
}

// Speaker pulls rendered PCM from src until closed.
type Speaker interface {
	Start(src io.Reader) error
	Close() error
}

// Framer slices an arbitrary stream of samples into fixed windows.
// It is not safe for concurrent use; device callbacks are serialized.
type Framer struct {
	size int
	buf  []float32
	emit func([]float32)
}

// NewFramer creates a framer emitting windows of size samples. Each emitted
// slice is freshly allocated and owned by the receiver.
func NewFramer(size int, emit func([]float32)) *Framer {
	if size <= 0 {
		size = FrameSize
	}
	return &Framer{size: size, buf: make([]float32, 0, size), emit: emit}
}

// Write appends samples, emitting every completed window.
func (f *Framer) Write(samples []float32) {
	for len(samples) > 0 {
		n := f.size - len(f.buf)
		if n > len(samples) {
			n = len(samples)
		}
		f.buf = append(f.buf, samples[:n]...)
		samples = samples[n:]
		if len(f.buf) == f.size {
			window := make([]float32, f.size)
			copy(window, f.buf)
			f.buf = f.buf[:0]
			f.emit(window)
		}
	}
}

// WriteFloat32LE appends little-endian IEEE-754 float32 samples.
func (f *Framer) WriteFloat32LE(raw []byte) {
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	f.Write(samples)
}

// Reset drops any partial window.
func (f *Framer) Reset() { f.buf = f.buf[:0] }
