package recorder

import "sync"

// Meter holds the most recent RMS level and the peak seen since the last
// Reset, both normalized to [0, 1]. Writers race benignly: last writer
// wins on RMS, peak is monotonic until Reset.
type Meter struct {
	mu   sync.Mutex
	rms  float64
	peak float64
}

func (m *Meter) update(rms, peak float64) {
	m.mu.Lock()
	m.rms = rms
	if peak > m.peak {
		m.peak = peak
	}
	m.mu.Unlock()
}

func (m *Meter) Level() (rms, peak float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rms, m.peak
}

func (m *Meter) Reset() {
	m.mu.Lock()
	m.rms = 0
	m.peak = 0
	m.mu.Unlock()
}
