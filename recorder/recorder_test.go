package recorder

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"parley/audio"
	"parley/encoder"
)

func pcmOf(value int16, frames int) []byte {
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(value))
	}
	return out
}

func TestStartStopSealsClip(t *testing.T) {
	pcm := pcmOf(1000, encoder.SampleRate) // one second
	r := New(audio.NewFakeContext(pcm), 1.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Recording() {
		t.Fatal("expected Recording() true after Start")
	}

	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.Recording() {
		t.Fatal("expected Recording() false after Stop")
	}
	if clip.Size() != len(pcm) {
		t.Errorf("clip size = %d, want %d", clip.Size(), len(pcm))
	}
	if clip.Duration() != time.Second {
		t.Errorf("clip duration = %v, want 1s", clip.Duration())
	}
	if clip.TooShort(0) {
		t.Error("one second of audio should pass the silence gate")
	}

	wav := clip.WAV()
	if string(wav[:4]) != "RIFF" {
		t.Error("WAV() missing RIFF magic")
	}
	if len(wav) != audio.WAVHeaderSize+clip.Size() {
		t.Errorf("WAV() size = %d, want %d", len(wav), audio.WAVHeaderSize+clip.Size())
	}
}

func TestGainScalesSamples(t *testing.T) {
	pcm := pcmOf(1000, encoder.SampleRate/2)
	r := New(audio.NewFakeContext(pcm), 2.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	samples := clip.Samples()
	if len(samples) == 0 {
		t.Fatal("no samples in clip")
	}
	for i, s := range samples {
		if s != 2000 {
			t.Fatalf("sample %d = %d, want 2000", i, s)
		}
	}
}

func TestGainClipsAtFullScale(t *testing.T) {
	pcm := pcmOf(20000, 1024)
	r := New(audio.NewFakeContext(pcm), 5.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for i, s := range clip.Samples() {
		if s != 32767 {
			t.Fatalf("sample %d = %d, want clipped 32767", i, s)
		}
	}
}

func TestClampGain(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, MinGain},
		{0.05, MinGain},
		{1.0, 1.0},
		{5.0, 5.0},
		{25, MaxGain},
	}
	for _, c := range cases {
		if got := ClampGain(c.in); got != c.want {
			t.Errorf("ClampGain(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	r := New(audio.NewFakeContext(nil), 100, nil)
	if r.Gain() != MaxGain {
		t.Errorf("constructor gain = %v, want %v", r.Gain(), MaxGain)
	}
	r.SetGain(0.001)
	if r.Gain() != MinGain {
		t.Errorf("SetGain floor = %v, want %v", r.Gain(), MinGain)
	}
}

func TestShortClipGate(t *testing.T) {
	pcm := pcmOf(500, 2000) // 4000 bytes, well under the gate
	r := New(audio.NewFakeContext(pcm), 1.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !clip.TooShort(0) {
		t.Errorf("clip of %d bytes should be too short", clip.Size())
	}
	if clip.TooShort(2000) {
		t.Errorf("clip of %d bytes should clear a 2000-byte gate", clip.Size())
	}
}

func TestStopWithoutDataReturnsNil(t *testing.T) {
	r := New(audio.NewFakeContext(nil), 1.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if clip != nil {
		t.Errorf("expected nil clip for an empty session, got %d bytes", clip.Size())
	}
}

func TestDoubleStartFails(t *testing.T) {
	r := New(audio.NewFakeContext(nil), 1.0, nil)
	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(nil); err == nil {
		t.Fatal("second Start should fail")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopWhileIdleFails(t *testing.T) {
	r := New(audio.NewFakeContext(nil), 1.0, nil)
	if _, err := r.Stop(); err == nil {
		t.Fatal("Stop without Start should fail")
	}
}

func TestMeterTracksLevel(t *testing.T) {
	pcm := pcmOf(16000, 4096)
	r := New(audio.NewFakeContext(pcm), 1.0, nil)

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rms, peak := r.Meter().Level()
	if rms <= 0 {
		t.Errorf("rms = %v, want > 0", rms)
	}
	if peak <= 0 || peak > 1 {
		t.Errorf("peak = %v, want in (0, 1]", peak)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestOnLevelCallback(t *testing.T) {
	pcm := pcmOf(8000, 4096)
	var calls int
	r := New(audio.NewFakeContext(pcm), 1.0, func(rms float64) {
		calls++
		if rms <= 0 {
			t.Errorf("callback rms = %v, want > 0", rms)
		}
	})

	if err := r.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if calls == 0 {
		t.Error("level callback never invoked")
	}
}

type failingContext struct{}

func (failingContext) Devices() ([]audio.DeviceInfo, error) { return nil, nil }
func (failingContext) Close()                               {}
func (failingContext) NewCapture(_ *audio.DeviceInfo, _ audio.CaptureConfig) (audio.CaptureDevice, error) {
	return nil, fmt.Errorf("no such device")
}

func TestStartFailureLeavesRecorderIdle(t *testing.T) {
	r := New(failingContext{}, 1.0, nil)
	if err := r.Start(nil); err == nil {
		t.Fatal("expected Start to fail")
	}
	if r.Recording() {
		t.Fatal("recorder should stay idle after a failed Start")
	}
}
