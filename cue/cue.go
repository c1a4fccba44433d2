// Package cue plays short audible ticks marking capture start, capture
// stop and pipeline errors, so the speaker knows the mic state without
// looking at the screen.
package cue

import (
	"math"
	"sync"
)

var (
	disabled bool
	initOnce sync.Once
)

// Disable turns all cues off, used by headless test mode.
func Disable() { disabled = true }

const sampleRate = 44100

// tone describes one cue: a decaying sine, optionally repeated.
type tone struct {
	freq   float64
	dur    float64
	volume float64
	decay  float64
	repeat int
	gap    float64
}

var (
	startTone = tone{freq: 1100, dur: 0.15, volume: 0.5, decay: 50, repeat: 1}
	endTone   = tone{freq: 800, dur: 0.18, volume: 0.5, decay: 35, repeat: 1}
	errorTone = tone{freq: 320, dur: 0.08, volume: 0.6, decay: 25, repeat: 2, gap: 0.05}
)

func (t tone) pcm() []int16 {
	n := int(float64(sampleRate) * t.dur)
	gapN := int(float64(sampleRate) * t.gap)
	out := make([]int16, 0, t.repeat*(n+gapN))
	for r := 0; r < t.repeat; r++ {
		for i := 0; i < n; i++ {
			at := float64(i) / float64(sampleRate)
			envelope := math.Exp(-at * t.decay)
			out = append(out, int16(math.Sin(2*math.Pi*t.freq*at)*32767*t.volume*envelope))
		}
		if r < t.repeat-1 {
			out = append(out, make([]int16, gapN)...)
		}
	}
	return out
}

// Init warms the playback backend so the first cue has no latency.
func Init() {
	initOnce.Do(initBackend)
}

func Start() { play(startTone) }
func End()   { play(endTone) }
func Error() { play(errorTone) }

func play(t tone) {
	if disabled {
		return
	}
	initOnce.Do(initBackend)
	go playPCM(t.pcm())
}
