package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"parley/encoder"
	"parley/log"
	"parley/recorder"
)

// Whisper talks to any OpenAI-compatible /audio/transcriptions endpoint:
// a local whisper.cpp server, faster-whisper, or api.openai.com itself.
type Whisper struct {
	baseTranscriber
	apiKey string
	model  string
	format string
}

func NewWhisper(apiURL, apiKey string) *Whisper {
	w := &Whisper{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(),
			apiURL: apiURL,
		},
		apiKey: apiKey,
		model:  "whisper-1",
		format: "wav",
	}
	go w.client.Warm(apiURL)
	return w
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) SetModel(model string) { w.model = model }

// SetFormat selects the upload codec, "wav" or "flac". FLAC costs CPU per
// clip but uploads roughly half the bytes.
func (w *Whisper) SetFormat(format string) error {
	if format != "wav" && format != "flac" {
		return fmt.Errorf("unknown upload format %q", format)
	}
	w.format = format
	return nil
}

type whisperResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text         string  `json:"text"`
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (w *Whisper) Transcribe(ctx context.Context, clip *recorder.Clip) (string, error) {
	payload, err := w.encode(clip)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+w.format)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}

	writer.WriteField("model", w.model)
	writer.WriteField("response_format", "verbose_json")
	if w.lang != "" {
		writer.WriteField("language", w.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return "", err
	}
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("whisper API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(resp.Body, &wResp); err != nil {
		return "", fmt.Errorf("whisper response parse error: %w", err)
	}

	log.Infof("transcribe provider=whisper format=%s audio_s=%.1f total_ms=%.0f conn_reused=%v",
		w.format, clip.Duration().Seconds(),
		float64(resp.Metrics.Total.Milliseconds()), resp.Metrics.ConnReused)

	return strings.TrimSpace(wResp.Text), nil
}

func (w *Whisper) encode(clip *recorder.Clip) ([]byte, error) {
	if w.format == "wav" {
		return clip.WAV(), nil
	}
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}
	samples := clip.Samples()
	for i := 0; i < len(samples); i += encoder.BlockSize {
		end := i + encoder.BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
