package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	// InputSampleRate is the capture rate streamed to the model.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of synthesized speech.
	OutputSampleRate = 24000
	// FrameSize is the number of samples in one capture window.
	FrameSize = 4096
	// InputMIMEType labels encoded capture frames.
	InputMIMEType = "audio/pcm;rate=16000"
)

// Blob is an encoded audio payload ready for the wire.
type Blob struct {
	Data     []byte
	MIMEType string
}

// DecodeError reports PCM bytes that do not form whole sample frames.
type DecodeError struct {
	Length   int
	Channels int
}

func (e *DecodeError) Error() string {
	if e.Length == 0 {
		return "audio: empty pcm payload"
	}
	return fmt.Sprintf("audio: %d bytes is not a whole number of %d-channel 16-bit frames", e.Length, e.Channels)
}

// Buffer is decoded PCM bound to a sample rate. Data holds one slice per
// channel, normalized to [-1, 1].
type Buffer struct {
	SampleRate int
	Data       [][]float32
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Seconds returns the buffer length on its own clock.
func (b *Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration is Seconds as a time.Duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// EncodeFrame converts float samples into 16-bit little-endian PCM tagged
// with the capture MIME type. Out-of-range samples are clamped.
func EncodeFrame(samples []float32) Blob {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(floatToInt16(s)))
	}
	return Blob{Data: out, MIMEType: InputMIMEType}
}

func floatToInt16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// DecodeAudioBuffer reinterprets interleaved 16-bit little-endian PCM as a
// Buffer at sampleRate. It returns a *DecodeError when raw is empty or not a
// whole number of frames.
func DecodeAudioBuffer(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("audio: channels must be > 0")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be > 0")
	}
	frameBytes := 2 * channels
	if len(raw) == 0 || len(raw)%frameBytes != 0 {
		return nil, &DecodeError{Length: len(raw), Channels: channels}
	}

	frames := len(raw) / frameBytes
	buf := &Buffer{SampleRate: sampleRate, Data: make([][]float32, channels)}
	for c := range buf.Data {
		buf.Data[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			sample := int16(binary.LittleEndian.Uint16(raw[off:]))
			buf.Data[c][i] = float32(sample) / 32768.0
		}
	}
	return buf, nil
}
