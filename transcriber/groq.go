package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"parley/log"
	"parley/recorder"
)

const groqURL = "https://api.groq.com/openai/v1/audio/transcriptions"

type Groq struct {
	baseTranscriber
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	g := &Groq{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(),
			apiURL: groqURL,
		},
		apiKey: apiKey,
	}
	go g.client.Warm(groqURL)
	return g
}

func (g *Groq) Name() string { return "groq" }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func (g *Groq) Transcribe(ctx context.Context, clip *recorder.Clip) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(clip.WAV()); err != nil {
		return "", err
	}

	writer.WriteField("model", "whisper-large-v3-turbo")
	writer.WriteField("response_format", "verbose_json")
	if g.lang != "" {
		writer.WriteField("language", g.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", fmt.Errorf("groq response parse error: %w", err)
	}

	rateLimit := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	log.Infof("transcribe provider=groq audio_s=%.1f total_ms=%.0f ratelimit=%s",
		clip.Duration().Seconds(), float64(resp.Metrics.Total.Milliseconds()), rateLimit)

	return strings.TrimSpace(gResp.Text), nil
}
