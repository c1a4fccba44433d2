// Package speech speaks translated text aloud through a platform TTS
// command. Utterances queue so overlapping pipeline completions play one
// at a time; Stop flushes the queue and silences the current utterance.
package speech

import (
	"context"
	"sync"

	"parley/log"
)

// Synthesizer plays one utterance and blocks until playback ends or the
// context is cancelled.
type Synthesizer interface {
	Name() string
	Speak(ctx context.Context, text, lang string) error
}

type utterance struct {
	text string
	lang string
}

// Engine serializes utterances through a single worker goroutine.
type Engine struct {
	synth Synthesizer
	queue chan utterance
	done  chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func NewEngine(synth Synthesizer) *Engine {
	e := &Engine{
		synth: synth,
		queue: make(chan utterance, 16),
		done:  make(chan struct{}),
	}
	go e.worker()
	return e
}

// Speak enqueues an utterance. A full queue drops the utterance rather
// than blocking the pipeline.
func (e *Engine) Speak(text, lang string) {
	if text == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.queue <- utterance{text: text, lang: lang}:
	default:
		log.Warn("speech queue full, dropping utterance")
	}
}

// Stop flushes queued utterances and interrupts the one playing. A new
// capture session calls this so the mic does not record our own voice.
func (e *Engine) Stop() {
	for {
		select {
		case <-e.queue:
		default:
			e.mu.Lock()
			if e.cancel != nil {
				e.cancel()
			}
			e.mu.Unlock()
			return
		}
	}
}

// Close stops playback and ends the worker.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.Stop()
	close(e.queue)
	<-e.done
}

func (e *Engine) worker() {
	defer close(e.done)
	for u := range e.queue {
		ctx, cancel := context.WithCancel(context.Background())
		e.mu.Lock()
		e.cancel = cancel
		e.mu.Unlock()

		if err := e.synth.Speak(ctx, u.text, u.lang); err != nil && ctx.Err() == nil {
			log.Degraded("speech", err)
		}

		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
	}
}
