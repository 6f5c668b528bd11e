package live

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultModel             = "gemini-2.5-flash-native-audio-preview-12-2025"
	DefaultVoice             = "Charon"
	DefaultSystemInstruction = "Você é o PJ Assistente da Paulo Jorge Barbershop. Ajude o cliente a agendar serviços e escolher barbeiros. Seja breve, cortês e premium. Responda sempre em Português."
)

// Config tunes an Assistant. An empty Language lets the model detect the
// spoken language.
type Config struct {
	Model             string
	Voice             string
	Language          string
	SystemInstruction string

	// SpeakingThreshold is the window RMS above which the user counts as
	// speaking; the flag holds for SpeakingHold after the last loud window.
	SpeakingThreshold float64
	SpeakingHold      time.Duration

	TypingInterval time.Duration
	IdleReplyDelay time.Duration

	// MaxDecodeFailures consecutive undecodable audio chunks end the session
	// as a channel failure.
	MaxDecodeFailures int

	CommandQueueSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Model:             DefaultModel,
		Voice:             DefaultVoice,
		SystemInstruction: DefaultSystemInstruction,
		SpeakingThreshold: 0.015,
		SpeakingHold:      200 * time.Millisecond,
		TypingInterval:    30 * time.Millisecond,
		IdleReplyDelay:    800 * time.Millisecond,
		MaxDecodeFailures: 8,
		CommandQueueSize:  16,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.Model) == "" {
		c.Model = d.Model
	}
	if strings.TrimSpace(c.Voice) == "" {
		c.Voice = d.Voice
	}
	c.Language = strings.TrimSpace(c.Language)
	if strings.TrimSpace(c.SystemInstruction) == "" {
		c.SystemInstruction = d.SystemInstruction
	}
	if c.SpeakingThreshold <= 0 {
		c.SpeakingThreshold = d.SpeakingThreshold
	}
	if c.SpeakingHold <= 0 {
		c.SpeakingHold = d.SpeakingHold
	}
	if c.TypingInterval <= 0 {
		c.TypingInterval = d.TypingInterval
	}
	if c.IdleReplyDelay <= 0 {
		c.IdleReplyDelay = d.IdleReplyDelay
	}
	if c.MaxDecodeFailures <= 0 {
		c.MaxDecodeFailures = d.MaxDecodeFailures
	}
	if c.CommandQueueSize <= 0 {
		c.CommandQueueSize = d.CommandQueueSize
	}
	return c
}

// Validate reports values that cannot be defaulted.
func (c Config) Validate() error {
	if c.SpeakingThreshold >= 1 {
		return fmt.Errorf("speaking threshold must be < 1")
	}
	return nil
}
