//go:build darwin

package speech

import (
	"context"
	"os/exec"
)

var sayVoices = map[string]string{
	"en": "Samantha",
	"es": "Monica",
	"it": "Alice",
	"fr": "Thomas",
	"de": "Anna",
	"pt": "Joana",
}

type saySynth struct{}

// NewSynthesizer uses the built-in `say` command.
func NewSynthesizer() (Synthesizer, error) {
	if _, err := exec.LookPath("say"); err != nil {
		return nil, err
	}
	return saySynth{}, nil
}

func (saySynth) Name() string { return "say" }

func (saySynth) Speak(ctx context.Context, text, lang string) error {
	args := []string{}
	if voice, ok := sayVoices[lang]; ok {
		args = append(args, "-v", voice)
	}
	args = append(args, text)
	return exec.CommandContext(ctx, "say", args...).Run()
}
