package translator

import (
	"context"
	"fmt"
	"strings"
)

// Local is the offline last resort: a small phrase dictionary covering
// common clinical vocabulary. Words it does not know pass through
// untouched; when nothing matches it reports failure so the chain can
// emit its placeholder.
type Local struct {
	dict map[string]string
}

func NewLocal() *Local {
	return &Local{dict: map[string]string{
		"ciao":    "hello",
		"grazie":  "thank you",
		"si":      "yes",
		"no":      "no",
		"dottore": "doctor",
		"paziente": "patient",
		"dolore":  "pain",
		"bene":    "well",
		"male":    "bad",
		"oggi":    "today",
	}}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Translate(_ context.Context, text, target string) (string, error) {
	words := strings.Fields(strings.ToLower(text))
	out := make([]string, len(words))
	found := 0
	for i, word := range words {
		clean := strings.Trim(word, ".,!?")
		if t, ok := l.dict[clean]; ok {
			out[i] = t
			found++
		} else {
			out[i] = word
		}
	}
	if found == 0 {
		return "", fmt.Errorf("no dictionary entries for %q (target %s)", text, target)
	}
	return strings.Join(out, " "), nil
}
