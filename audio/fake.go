package audio

import (
	"fmt"
	"os"
	"sync"
)

const fakeChunkFrames = 1024

// FakeContext replays canned PCM through the CaptureDevice interface so the
// recorder and pipeline can be exercised without a sound card.
type FakeContext struct {
	pcm []byte
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FakeContextFromWAV loads a 16-bit mono WAV file, discarding the header.
func FakeContextFromWAV(path string) (*FakeContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < WAVHeaderSize {
		return nil, fmt.Errorf("%s: too short to be a WAV file", path)
	}
	return &FakeContext{pcm: data[WAVHeaderSize:]}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake microphone"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm}, nil
}

type FakeCapture struct {
	pcm       []byte
	FailStart bool

	mu sync.Mutex
	cb DataCallback
}

// Start delivers the whole canned buffer to the callback synchronously.
// Tests see a fully captured clip the moment Start returns.
func (f *FakeCapture) Start() error {
	if f.FailStart {
		return fmt.Errorf("fake capture: device unavailable")
	}
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb == nil {
		return nil
	}
	chunkBytes := fakeChunkFrames * 2
	for pos := 0; pos < len(f.pcm); pos += chunkBytes {
		end := min(pos+chunkBytes, len(f.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, f.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/2))
	}
	return nil
}

func (f *FakeCapture) Stop()  {}
func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake microphone" }
