package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

func TestFramerEmitsFixedWindows(t *testing.T) {
	var windows [][]float32
	f := NewFramer(4, func(w []float32) { windows = append(windows, w) })

	f.Write([]float32{1, 2, 3})
	if len(windows) != 0 || len(f.buf) != 3 {
		t.Fatalf("windows=%d buffered=%d", len(windows), len(f.buf))
	}
	f.Write([]float32{4, 5, 6, 7, 8, 9})
	if len(windows) != 2 {
		t.Fatalf("windows=%d, want 2", len(windows))
	}
	if windows[0][0] != 1 || windows[0][3] != 4 || windows[1][0] != 5 || windows[1][3] != 8 {
		t.Fatalf("windows=%v", windows)
	}
	if len(f.buf) != 1 {
		t.Fatalf("buffered=%d, want 1", len(f.buf))
	}
	f.Reset()
	if len(f.buf) != 0 {
		t.Fatalf("buffered=%d after reset", len(f.buf))
	}
}

func TestFramerWriteFloat32LE(t *testing.T) {
	var got []float32
	f := NewFramer(2, func(w []float32) { got = append(got, w...) })
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(-0.75))
	f.WriteFloat32LE(raw)
	if len(got) != 2 || got[0] != 0.25 || got[1] != -0.75 {
		t.Fatalf("got=%v", got)
	}
}

type fakeSpeaker struct {
	started int
	closed  int
}

func (s *fakeSpeaker) Start(src io.Reader) error {
	s.started++
	return nil
}

func (s *fakeSpeaker) Close() error {
	s.closed++
	return nil
}

func TestPipelineEnsureIsLazyAndIdempotent(t *testing.T) {
	sp := &fakeSpeaker{}
	p := NewPipeline(sp, nil)
	if p.Output() != nil {
		t.Fatal("output context should be created lazily")
	}
	out, err := p.Ensure()
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	again, err := p.Ensure()
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if again != out || sp.started != 1 {
		t.Fatalf("same=%v started=%d", again == out, sp.started)
	}

	p.Play(Ding())
	if out.Pending() != 1 {
		t.Fatalf("pending=%d, want 1", out.Pending())
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sp.closed != 1 || p.Output() != nil {
		t.Fatalf("closed=%d output=%v", sp.closed, p.Output())
	}
}
