package speech

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSpeakPlaysInOrder(t *testing.T) {
	fake := &FakeSynth{}
	e := NewEngine(fake)
	e.Speak("first", "en")
	e.Speak("second", "en")
	e.Close()

	spoken := fake.Spoken()
	if len(spoken) != 2 || spoken[0] != "first" || spoken[1] != "second" {
		t.Errorf("spoken = %v, want [first second]", spoken)
	}
}

func TestStopFlushesQueueAndInterrupts(t *testing.T) {
	fake := &FakeSynth{Block: true}
	e := NewEngine(fake)

	e.Speak("playing", "en")
	waitFor(t, func() bool { return len(fake.Spoken()) == 1 })

	// These sit behind the blocked utterance.
	e.Speak("queued one", "en")
	e.Speak("queued two", "en")

	e.Stop()
	e.Close()

	spoken := fake.Spoken()
	if len(spoken) != 1 || spoken[0] != "playing" {
		t.Errorf("spoken = %v, want only the interrupted utterance", spoken)
	}
}

func TestSpeakEmptyIgnored(t *testing.T) {
	fake := &FakeSynth{}
	e := NewEngine(fake)
	e.Speak("", "en")
	e.Close()
	if len(fake.Spoken()) != 0 {
		t.Errorf("spoken = %v, want none", fake.Spoken())
	}
}

func TestCloseIdempotent(t *testing.T) {
	e := NewEngine(&FakeSynth{})
	e.Close()
	e.Close() // should not panic

	// Speak after Close is a no-op, not a panic.
	e.Speak("late", "en")
}
