// Package pipeline runs a sealed clip through transcription, translation,
// the ledger, speech and persistence. Each clip gets its own goroutine so
// a slow transcription never blocks the next capture; turns land in the
// ledger in completion order.
package pipeline

import (
	"context"
	"time"

	"parley/config"
	"parley/ledger"
	"parley/log"
	"parley/ptt"
	"parley/recorder"
	"parley/speech"
	"parley/store"
	"parley/transcriber"
	"parley/translator"
)

// clipTimeout bounds one clip's whole trip; a hung provider must not pin
// a goroutine forever.
const clipTimeout = 2 * time.Minute

// Sink receives pipeline outcomes on pipeline goroutines; implementations
// must be safe for concurrent use and quick.
type Sink interface {
	TurnCompleted(t ledger.Turn)
	NoSpeech(dir ptt.Direction)
	PipelineError(stage string, err error)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) TurnCompleted(ledger.Turn)     {}
func (NopSink) NoSpeech(ptt.Direction)        {}
func (NopSink) PipelineError(string, error)   {}

type Pipeline struct {
	cfg    *config.Config
	trans  transcriber.Transcriber
	chain  *translator.Chain
	speech *speech.Engine // nil when TTS is disabled
	db     *store.Store   // nil when persistence is disabled
	led    *ledger.Ledger
	sink   Sink

	convID  string
	pending chan struct{}
}

// New wires a pipeline. speech and db may be nil; a nil sink becomes
// NopSink. When db is set a conversation row is opened immediately.
func New(cfg *config.Config, trans transcriber.Transcriber, chain *translator.Chain,
	sp *speech.Engine, db *store.Store, led *ledger.Ledger, sink Sink) (*Pipeline, error) {

	if sink == nil {
		sink = NopSink{}
	}
	p := &Pipeline{
		cfg:     cfg,
		trans:   trans,
		chain:   chain,
		speech:  sp,
		db:      db,
		led:     led,
		sink:    sink,
		pending: make(chan struct{}, 64),
	}
	if db != nil {
		id, err := db.StartConversation()
		if err != nil {
			return nil, err
		}
		p.convID = id
	}
	return p, nil
}

func (p *Pipeline) Ledger() *ledger.Ledger { return p.led }

// Submit hands a sealed clip to a background worker and returns at once.
func (p *Pipeline) Submit(dir ptt.Direction, clip *recorder.Clip) {
	p.pending <- struct{}{}
	go func() {
		defer func() { <-p.pending }()
		p.process(dir, clip)
	}()
}

// Drain blocks until every submitted clip has finished.
func (p *Pipeline) Drain() {
	for i := 0; i < cap(p.pending); i++ {
		p.pending <- struct{}{}
	}
	for i := 0; i < cap(p.pending); i++ {
		<-p.pending
	}
}

// StartNew seals the running conversation and begins a fresh one,
// returning the sealed turns.
func (p *Pipeline) StartNew() ([]ledger.Turn, error) {
	sealed := p.led.StartNew()
	if p.db == nil {
		return sealed, nil
	}
	if p.convID != "" {
		if err := p.db.SealConversation(p.convID); err != nil {
			log.Degraded("store/seal", err)
		}
	}
	id, err := p.db.StartConversation()
	if err != nil {
		return sealed, err
	}
	p.convID = id
	return sealed, nil
}

// Close seals the conversation; call after Drain.
func (p *Pipeline) Close() {
	if p.db != nil && p.convID != "" {
		if err := p.db.SealConversation(p.convID); err != nil {
			log.Degraded("store/seal", err)
		}
	}
	log.SessionEnd(p.led.Len())
}

func (p *Pipeline) process(dir ptt.Direction, clip *recorder.Clip) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), clipTimeout)
	defer cancel()

	// The silence gate short-circuits before any network round trip.
	if clip == nil {
		log.Info("empty capture, skipping transcription")
		p.sink.NoSpeech(dir)
		return
	}
	if clip.TooShort(p.cfg.MinClipBytes) {
		log.Infof("clip too short (%d bytes), skipping transcription", clip.Size())
		p.sink.NoSpeech(dir)
		return
	}

	p.trans.SetLanguage(p.cfg.SpokenLangFor(dir))
	transcribeStart := time.Now()
	text, err := p.trans.Transcribe(ctx, clip)
	transcribeMs := float64(time.Since(transcribeStart).Milliseconds())
	if err != nil {
		// A failed transcription is indistinguishable from silence to
		// the user; only the diagnostics log carries the cause.
		log.Degraded("transcribe", err)
		p.sink.NoSpeech(dir)
		return
	}
	if text == "" || transcriber.IsHallucination(text, p.cfg.Hallucinations) {
		log.Infof("no speech detected (text=%q)", text)
		p.sink.NoSpeech(dir)
		return
	}

	target := p.cfg.TargetFor(dir)
	translateStart := time.Now()
	combined := p.chain.Process(ctx, text, target)
	translateMs := float64(time.Since(translateStart).Milliseconds())
	original, translated, tag := translator.Split(combined)

	turn := ledger.Turn{
		At:          time.Now(),
		Direction:   dir,
		Speaker:     ledger.SpeakerFor(dir),
		Original:    original,
		Translation: translated,
		Provider:    tag,
	}
	p.led.Append(turn)
	log.ConversationText(turn.Format())

	// Only the translation is spoken; speaking the original back would
	// echo the speaker.
	speakStart := time.Now()
	if p.speech != nil && tag != "none" {
		p.speech.Speak(translated, target)
	}
	speakMs := float64(time.Since(speakStart).Milliseconds())

	if p.db != nil {
		var wav []byte
		if p.cfg.RetainClips {
			wav = clip.WAV()
		}
		if err := p.db.SaveTurn(p.convID, turn, wav); err != nil {
			log.Degraded("store/save", err)
		}
	}

	log.Turn(dir.String(), turn.Speaker.String(), tag, log.PipelineMetrics{
		AudioS:       clip.Duration().Seconds(),
		ClipKB:       float64(clip.Size()) / 1024,
		SpeechRatio:  clip.SpeechRatio,
		TranscribeMs: transcribeMs,
		TranslateMs:  translateMs,
		SpeakMs:      speakMs,
		TotalMs:      float64(time.Since(start).Milliseconds()),
	})
	p.sink.TurnCompleted(turn)
}
