package recorder

import (
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"parley/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
)

// vadProcessor tracks how much of the captured audio looks like speech.
// The ratio is advisory; the byte-size gate decides whether a clip is
// processed at all.
type vadProcessor struct {
	vad *webrtcvad.VAD

	mu           sync.Mutex
	buf          []byte
	totalFrames  int
	speechFrames int
}

func newVADProcessor() (*vadProcessor, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadProcessor{vad: v}, nil
}

func (p *vadProcessor) Process(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, data...)
	for len(p.buf) >= vadFrameBytes {
		frame := p.buf[:vadFrameBytes]
		p.buf = p.buf[vadFrameBytes:]

		active, err := p.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		p.totalFrames++
		if active {
			p.speechFrames++
		}
	}
}

// Ratio returns the fraction of processed frames classified as speech,
// or 0 when no full frame has been seen.
func (p *vadProcessor) Ratio() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.totalFrames == 0 {
		return 0
	}
	return float64(p.speechFrames) / float64(p.totalFrames)
}
