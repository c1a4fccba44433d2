package speech

import (
	"context"
	"sync"
)

// FakeSynth records utterances. Block, when set, makes Speak wait for
// context cancellation so interruption can be tested.
type FakeSynth struct {
	Block bool

	mu     sync.Mutex
	spoken []string
}

func (f *FakeSynth) Name() string { return "fake" }

func (f *FakeSynth) Speak(ctx context.Context, text, _ string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	if f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *FakeSynth) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}
