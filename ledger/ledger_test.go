package ledger

import (
	"strings"
	"sync"
	"testing"
	"time"

	"parley/ptt"
)

func at(h, m, s int) time.Time {
	return time.Date(2026, 3, 14, h, m, s, 0, time.UTC)
}

func TestSpeakerFor(t *testing.T) {
	if SpeakerFor(ptt.Forward) != SpeakerSource {
		t.Error("Forward should map to SpeakerSource")
	}
	if SpeakerFor(ptt.Reverse) != SpeakerTarget {
		t.Error("Reverse should map to SpeakerTarget")
	}
}

func TestTurnFormat(t *testing.T) {
	turn := Turn{
		At:          at(9, 30, 5),
		Speaker:     SpeakerSource,
		Original:    "where does it hurt",
		Translation: "donde le duele",
	}
	want := "[09:30:05] Source: where does it hurt\n  -> donde le duele"
	if got := turn.Format(); got != want {
		t.Errorf("Format:\n got %q\nwant %q", got, want)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	l := New()
	l.Append(Turn{At: at(10, 0, 0), Speaker: SpeakerSource, Original: "one"})
	l.Append(Turn{At: at(10, 0, 5), Speaker: SpeakerTarget, Original: "two"})
	l.Append(Turn{At: at(10, 0, 9), Speaker: SpeakerSource, Original: "three"})

	turns := l.Turns()
	if len(turns) != 3 {
		t.Fatalf("len = %d, want 3", len(turns))
	}
	for i, want := range []string{"one", "two", "three"} {
		if turns[i].Original != want {
			t.Errorf("turn %d = %q, want %q", i, turns[i].Original, want)
		}
	}
	if l.Len() != 3 {
		t.Errorf("Len = %d, want 3", l.Len())
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	l := New()
	l.Append(Turn{Original: "original"})
	turns := l.Turns()
	turns[0].Original = "mutated"
	if got := l.Turns()[0].Original; got != "original" {
		t.Errorf("ledger mutated through returned slice: %q", got)
	}
}

func TestSummaryLastN(t *testing.T) {
	l := New()
	for _, text := range []string{"a", "b", "c", "d"} {
		l.Append(Turn{At: at(11, 0, 0), Speaker: SpeakerSource, Original: text, Translation: text})
	}

	s := l.Summary(2)
	if strings.Contains(s, "Source: a") || strings.Contains(s, "Source: b") {
		t.Errorf("Summary(2) should only hold the last two turns, got:\n%s", s)
	}
	if !strings.Contains(s, "Source: c") || !strings.Contains(s, "Source: d") {
		t.Errorf("Summary(2) missing recent turns, got:\n%s", s)
	}

	full := l.Summary(0)
	for _, text := range []string{"a", "b", "c", "d"} {
		if !strings.Contains(full, "Source: "+text) {
			t.Errorf("Summary(0) missing %q", text)
		}
	}
}

func TestStartNewSealsAndResets(t *testing.T) {
	l := New()
	l.Append(Turn{Original: "before"})
	l.Append(Turn{Original: "also before"})

	sealed := l.StartNew()
	if len(sealed) != 2 {
		t.Fatalf("sealed %d turns, want 2", len(sealed))
	}
	if l.Len() != 0 {
		t.Errorf("ledger should be empty after StartNew, has %d", l.Len())
	}

	l.Append(Turn{Original: "after"})
	if l.Len() != 1 {
		t.Errorf("Len after reset append = %d, want 1", l.Len())
	}
}

func TestLast(t *testing.T) {
	l := New()
	if _, ok := l.Last(); ok {
		t.Error("Last on empty ledger should report false")
	}
	l.Append(Turn{Original: "first"})
	l.Append(Turn{Original: "second"})
	last, ok := l.Last()
	if !ok || last.Original != "second" {
		t.Errorf("Last = %+v, %v; want second, true", last, ok)
	}
}

func TestConcurrentAppend(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Append(Turn{Original: "x"})
			}
		}()
	}
	wg.Wait()
	if l.Len() != 400 {
		t.Errorf("Len = %d, want 400", l.Len())
	}
}
