// Package ledger keeps the in-memory transcript of a conversation: one
// Turn per utterance, appended in completion order.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"parley/ptt"
)

// Speaker identifies which side of the conversation produced a turn.
type Speaker int

const (
	SpeakerSource Speaker = iota // the device owner
	SpeakerTarget                // the counterpart
)

func (s Speaker) String() string {
	if s == SpeakerTarget {
		return "Target"
	}
	return "Source"
}

// SpeakerFor maps a capture direction to the speaker it records.
// Forward captures the device owner, Reverse the counterpart.
func SpeakerFor(dir ptt.Direction) Speaker {
	if dir == ptt.Reverse {
		return SpeakerTarget
	}
	return SpeakerSource
}

// Turn is one completed utterance: what was said and what was spoken back.
type Turn struct {
	At          time.Time
	Direction   ptt.Direction
	Speaker     Speaker
	Original    string
	Translation string
	Provider    string // which translation backend produced the text
}

// Format renders the turn the way it appears in transcripts.
func (t Turn) Format() string {
	return fmt.Sprintf("[%s] %s: %s\n  -> %s",
		t.At.Format("15:04:05"), t.Speaker, t.Original, t.Translation)
}

// Ledger is an append-only transcript. Turns land in the order their
// pipelines complete, which can differ from capture order.
type Ledger struct {
	mu    sync.Mutex
	turns []Turn
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(t Turn) {
	l.mu.Lock()
	l.turns = append(l.turns, t)
	l.mu.Unlock()
}

// Turns returns a copy of the transcript so far.
func (l *Ledger) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Last returns the most recent turn, if any.
func (l *Ledger) Last() (Turn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// Summary renders the last n turns as transcript text, oldest first.
// n <= 0 means the whole conversation.
func (l *Ledger) Summary(n int) string {
	turns := l.Turns()
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Format()
	}
	return strings.Join(lines, "\n")
}

// StartNew seals the current transcript and resets the ledger, returning
// the sealed turns.
func (l *Ledger) StartNew() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	sealed := l.turns
	l.turns = nil
	return sealed
}
