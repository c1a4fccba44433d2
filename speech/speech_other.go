//go:build !linux && !darwin

package speech

import (
	"context"

	"parley/log"
)

type noopSynth struct{}

// NewSynthesizer returns a silent synthesizer; translated text still
// reaches the transcript and the screen.
func NewSynthesizer() (Synthesizer, error) {
	return noopSynth{}, nil
}

func (noopSynth) Name() string { return "noop" }

func (noopSynth) Speak(_ context.Context, text, _ string) error {
	log.Infof("tts unavailable on this platform, not speaking: %s", text)
	return nil
}
