package encoder

import (
	"bytes"
	"encoding/binary"
)

// WAVHeader builds a canonical 44-byte RIFF header for dataLen bytes of
// mono 16-bit PCM at the package sample rate.
func WAVHeader(dataLen int) []byte {
	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], Channels)
	binary.LittleEndian.PutUint32(h[24:28], SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(h[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(h[34:36], BitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// WavEncoder buffers raw PCM and prepends the RIFF header on Close.
type WavEncoder struct {
	pcm         bytes.Buffer
	out         []byte
	totalFrames uint64
}

func NewWav() *WavEncoder {
	return &WavEncoder{}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	raw := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	e.pcm.Write(raw)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	data := e.pcm.Bytes()
	e.out = append(WAVHeader(len(data)), data...)
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	return e.out
}

func (e *WavEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

func (e *WavEncoder) Format() string { return "wav" }
