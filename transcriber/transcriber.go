// Package transcriber turns sealed audio clips into text via
// Whisper-compatible HTTP APIs.
package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"parley/recorder"
)

type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	Language() string
	Transcribe(ctx context.Context, clip *recorder.Clip) (string, error)
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) Language() string { return b.lang }

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// DefaultHallucinations are artifacts Whisper models emit on silent or
// noisy clips, usually subtitle credits learned from training data.
var DefaultHallucinations = []string{
	"qtss",
	"sottotitoli",
	"subtitles",
	"captions",
}

// IsHallucination reports whether a transcript matches one of the given
// silence artifacts. Matching is case-insensitive on substrings; a nil
// markers slice falls back to DefaultHallucinations.
func IsHallucination(text string, markers []string) bool {
	if markers == nil {
		markers = DefaultHallucinations
	}
	lower := strings.ToLower(text)
	for _, h := range markers {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// New picks a provider from the environment: WHISPER_URL first, then
// GROQ_API_KEY.
func New() (Transcriber, error) {
	if url := os.Getenv("WHISPER_URL"); url != "" {
		return NewWhisper(url, os.Getenv("WHISPER_API_KEY")), nil
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	return nil, fmt.Errorf("set WHISPER_URL or GROQ_API_KEY environment variable")
}
