package device

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/vango-go/pj-assistant/pkg/core/audio"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedOtoContext(bufferSize time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   audio.OutputSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   bufferSize,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Speaker pulls 16-bit mono PCM at the output rate from the pipeline.
type Speaker struct {
	bufferSize time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	player *oto.Player
}

// NewSpeaker creates a speaker. bufferSize trades latency for glitch
// resistance; zero uses the driver default.
func NewSpeaker(bufferSize time.Duration, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{bufferSize: bufferSize, logger: logger}
}

func (s *Speaker) Start(src io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return fmt.Errorf("speaker already started")
	}
	ctx, err := sharedOtoContext(s.bufferSize)
	if err != nil {
		return fmt.Errorf("init oto: %w", err)
	}
	s.player = ctx.NewPlayer(src)
	s.player.Play()
	s.logger.Debug("speaker started", "sample_rate", audio.OutputSampleRate, "buffer", s.bufferSize)
	return nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	s.player.Pause()
	err := s.player.Close()
	s.player = nil
	return err
}
