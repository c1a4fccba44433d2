// Package translator renders transcripts into the other party's language.
// Providers are tried in order; translation failure degrades the turn, it
// never drops it.
package translator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"parley/log"
)

// Provider is one translation backend. Name doubles as the tag appended
// to translated text.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, target string) (string, error)
}

// Chain tries providers in order and tags the output with whichever one
// answered.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Process translates text and returns "original -> translated [tag]".
// It never fails: when every provider errors out the arrow carries a
// placeholder instead of a translation.
func (c *Chain) Process(ctx context.Context, text, target string) string {
	translated, tag := c.Translate(ctx, text, target)
	return fmt.Sprintf("%s -> %s [%s]", text, translated, tag)
}

// Names lists the providers in fallback order, for status display.
func (c *Chain) Names() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, " > ")
}

// Translate returns the translated text and the name of the provider
// that produced it. On total failure the tag is "none".
func (c *Chain) Translate(ctx context.Context, text, target string) (string, string) {
	if strings.TrimSpace(text) == "" {
		return "", "none"
	}
	for _, p := range c.providers {
		out, err := p.Translate(ctx, text, target)
		if err != nil {
			log.Degraded("translate/"+p.Name(), err)
			continue
		}
		if strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out), p.Name()
		}
	}
	return fmt.Sprintf("[no translation available to %s]", strings.ToUpper(target)), "none"
}

// Split breaks a Process result back into original, translation and tag.
// Malformed input comes back as the original with empty parts.
func Split(s string) (original, translated, tag string) {
	original, rest, found := strings.Cut(s, " -> ")
	if !found {
		return s, "", ""
	}
	translated = rest
	if i := strings.LastIndex(rest, " ["); i >= 0 && strings.HasSuffix(rest, "]") {
		translated = rest[:i]
		tag = rest[i+2 : len(rest)-1]
	}
	return original, translated, tag
}

// New assembles the default chain from the environment: DeepL when
// DEEPL_API_KEY is set, LibreTranslate when LIBRETRANSLATE_URL is set,
// and the local dictionary always last.
func New(usagePath string) *Chain {
	var providers []Provider
	if key := os.Getenv("DEEPL_API_KEY"); key != "" {
		providers = append(providers, NewDeepL(key, usagePath))
	}
	if url := os.Getenv("LIBRETRANSLATE_URL"); url != "" {
		providers = append(providers, NewLibre(url))
	}
	providers = append(providers, NewLocal())
	return NewChain(providers...)
}
