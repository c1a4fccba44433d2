//go:build linux

package speech

import (
	"context"
	"fmt"
	"os/exec"
)

type espeakSynth struct {
	command string
}

// NewSynthesizer prefers espeak-ng, falling back to classic espeak.
func NewSynthesizer() (Synthesizer, error) {
	for _, cmd := range []string{"espeak-ng", "espeak"} {
		if _, err := exec.LookPath(cmd); err == nil {
			return &espeakSynth{command: cmd}, nil
		}
	}
	return nil, fmt.Errorf("no speech synthesizer found (install espeak-ng)")
}

func (s *espeakSynth) Name() string { return s.command }

func (s *espeakSynth) Speak(ctx context.Context, text, lang string) error {
	args := []string{}
	if lang != "" {
		args = append(args, "-v", lang)
	}
	args = append(args, text)
	return exec.CommandContext(ctx, s.command, args...).Run()
}
