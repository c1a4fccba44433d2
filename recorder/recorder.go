package recorder

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"parley/audio"
	"parley/encoder"
	"parley/log"
)

const (
	// MinGain and MaxGain bound the software gain applied to captured
	// samples. Values outside the range are clamped, not rejected.
	MinGain = 0.1
	MaxGain = 5.0

	// MinClipBytes is the default smallest sealed clip worth
	// transcribing. At 16kHz mono 16-bit this is a bit over 300ms of
	// audio. Overridable through MIN_CLIP_BYTES.
	MinClipBytes = 10000
)

// Clip is one sealed capture session: raw PCM plus advisory metadata.
type Clip struct {
	PCM         []byte
	SampleRate  int
	Channels    int
	SpeechRatio float64 // fraction of VAD frames with speech, -1 when VAD was unavailable
}

func (c *Clip) Size() int { return len(c.PCM) }

func (c *Clip) Duration() time.Duration {
	frames := len(c.PCM) / 2 / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// TooShort reports whether the clip falls under the silence gate. The
// byte threshold is authoritative; SpeechRatio is advisory only. A
// non-positive min falls back to MinClipBytes.
func (c *Clip) TooShort(min int) bool {
	if min <= 0 {
		min = MinClipBytes
	}
	return len(c.PCM) < min
}

// WAV returns the clip as a complete RIFF file image.
func (c *Clip) WAV() []byte {
	return append(encoder.WAVHeader(len(c.PCM)), c.PCM...)
}

func (c *Clip) Samples() []int16 {
	out := make([]int16, len(c.PCM)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(c.PCM[i*2:]))
	}
	return out
}

// ClampGain pulls a requested gain into the supported range.
func ClampGain(g float64) float64 {
	if g < MinGain {
		return MinGain
	}
	if g > MaxGain {
		return MaxGain
	}
	return g
}

// Recorder owns at most one capture session at a time. Start installs the
// data callback and begins buffering; Stop tears the device down and seals
// the buffered audio into a Clip.
type Recorder struct {
	actx    audio.Context
	meter   *Meter
	onLevel func(rms float64)

	mu        sync.Mutex
	gain      float64
	capture   audio.CaptureDevice
	buf       []byte
	vp        *vadProcessor
	recording bool
}

// New builds a recorder. onLevel, if non-nil, is invoked from the audio
// callback with the RMS level of each block and must be fast.
func New(actx audio.Context, gain float64, onLevel func(rms float64)) *Recorder {
	return &Recorder{
		actx:    actx,
		gain:    ClampGain(gain),
		meter:   &Meter{},
		onLevel: onLevel,
	}
}

func (r *Recorder) Meter() *Meter { return r.meter }

func (r *Recorder) SetGain(g float64) {
	r.mu.Lock()
	r.gain = ClampGain(g)
	r.mu.Unlock()
}

func (r *Recorder) Gain() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gain
}

// Start opens the device and begins buffering. A second Start without an
// intervening Stop is an error.
func (r *Recorder) Start(device *audio.DeviceInfo) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("recorder: already recording")
	}

	capture, err := r.actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("opening capture device: %w", err)
	}

	vp, err := newVADProcessor()
	if err != nil {
		// VAD is advisory; capture proceeds without it.
		log.Warnf("vad init failed: %v", err)
		vp = nil
	}

	r.capture = capture
	r.buf = r.buf[:0]
	r.vp = vp
	r.recording = true
	r.meter.Reset()
	r.mu.Unlock()

	// Start outside the lock: the device may deliver data synchronously.
	capture.SetCallback(r.onData)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		r.mu.Lock()
		r.capture = nil
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

// Stop ends the session and returns the sealed clip. Calling Stop while
// idle is an error.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, fmt.Errorf("recorder: not recording")
	}

	capture := r.capture
	r.capture = nil
	r.recording = false

	pcm := make([]byte, len(r.buf))
	copy(pcm, r.buf)
	r.buf = r.buf[:0]

	ratio := -1.0
	if r.vp != nil {
		ratio = r.vp.Ratio()
		r.vp = nil
	}
	r.mu.Unlock()

	// Teardown outside the lock: late callbacks see recording=false and
	// drop their data.
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	// A session that never delivered a block has nothing to seal.
	if len(pcm) == 0 {
		return nil, nil
	}

	return &Clip{
		PCM:         pcm,
		SampleRate:  encoder.SampleRate,
		Channels:    encoder.Channels,
		SpeechRatio: ratio,
	}, nil
}

// Recording reports whether a session is in flight.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *Recorder) onData(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}

	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	gain := r.gain

	scaled := make([]byte, len(data)&^1)
	var sumSquares, peak float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(data[i:]))) * gain
		if sample > 32767 {
			sample = 32767
		} else if sample < -32768 {
			sample = -32768
		}
		binary.LittleEndian.PutUint16(scaled[i:], uint16(int16(sample)))

		normalized := math.Abs(sample) / 32768.0
		sumSquares += normalized * normalized
		if normalized > peak {
			peak = normalized
		}
	}
	r.buf = append(r.buf, scaled...)
	vp := r.vp
	r.mu.Unlock()

	rms := math.Sqrt(sumSquares / float64(len(scaled)/2))
	r.meter.update(rms, peak)
	if r.onLevel != nil {
		r.onLevel(rms)
	}
	if vp != nil {
		vp.Process(scaled)
	}
}
