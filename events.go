package main

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/ledger"
	"parley/log"
	"parley/ptt"
)

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// headless test mode receive the same capture and pipeline events.
type EventSink interface {
	RecordingStart(dir ptt.Direction)
	RecordingStop(dir ptt.Direction)
	AudioLevel(level float64)
	TurnCompleted(t ledger.Turn)
	NoSpeech(dir ptt.Direction)
	PipelineError(stage string, err error)
	Analysis(text string, err error)
	ConversationReset(turns int)
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards events to the TUI as messages. It also owns the
// recording duration ticker so the model only ever consumes messages.
type tuiSink struct {
	mu       sync.Mutex
	tickStop chan struct{}
}

func newTUISink() *tuiSink { return &tuiSink{} }

func (s *tuiSink) RecordingStart(dir ptt.Direction) {
	tuiSend(RecordingStartMsg{Direction: dir})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickStop != nil {
		close(s.tickStop)
	}
	stop := make(chan struct{})
	s.tickStop = stop
	go func() {
		start := time.Now()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tuiSend(RecordingTickMsg{Duration: time.Since(start).Seconds()})
			}
		}
	}()
}

func (s *tuiSink) RecordingStop(dir ptt.Direction) {
	s.mu.Lock()
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
	s.mu.Unlock()
	tuiSend(RecordingStopMsg{})
}

func (s *tuiSink) AudioLevel(level float64) {
	tuiSend(AudioLevelMsg{Level: level})
}

func (s *tuiSink) TurnCompleted(t ledger.Turn) {
	tuiSend(TurnMsg{Turn: t})
}

func (s *tuiSink) NoSpeech(dir ptt.Direction) {
	tuiSend(NoSpeechMsg{Direction: dir})
}

func (s *tuiSink) PipelineError(stage string, err error) {
	tuiSend(PipelineErrorMsg{Stage: stage, Err: err})
}

func (s *tuiSink) Analysis(text string, err error) {
	tuiSend(AnalysisMsg{Text: text, Err: err})
}

func (s *tuiSink) ConversationReset(turns int) {
	tuiSend(ConversationResetMsg{Turns: turns})
}

// logSink is the headless sink: everything lands in the diagnostic and
// conversation logs only.
type logSink struct{}

func (logSink) RecordingStart(dir ptt.Direction) { log.Info("capture start " + dir.String()) }
func (logSink) RecordingStop(dir ptt.Direction)  { log.Info("capture stop " + dir.String()) }
func (logSink) AudioLevel(float64)               {}
func (logSink) TurnCompleted(t ledger.Turn)      {}
func (logSink) NoSpeech(dir ptt.Direction)       { log.Info("no speech " + dir.String()) }
func (logSink) PipelineError(stage string, err error) {
	log.Errorf("pipeline %s: %v", stage, err)
}
func (logSink) Analysis(text string, err error) {
	if err != nil {
		log.Degraded("analysis", err)
		return
	}
	log.ConversationText("review\t" + text)
}
func (logSink) ConversationReset(turns int) { log.Infof("conversation reset after %d turns", turns) }
