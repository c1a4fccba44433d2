package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Libre talks to a LibreTranslate-compatible /translate endpoint,
// typically a self-hosted instance for privacy-sensitive deployments.
type Libre struct {
	base   string
	apiKey string
	client *http.Client
}

func NewLibre(base string) *Libre {
	return &Libre{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (l *Libre) SetAPIKey(key string) { l.apiKey = key }

func (l *Libre) Name() string { return "libre" }

func (l *Libre) Translate(ctx context.Context, text, target string) (string, error) {
	payload := map[string]any{
		"q":      text,
		"source": "auto",
		"target": strings.ToLower(target),
		"format": "text",
	}
	if l.apiKey != "" {
		payload["api_key"] = l.apiKey
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.base+"/translate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("libretranslate http %d", resp.StatusCode)
	}

	var lr struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", err
	}
	return strings.TrimSpace(lr.TranslatedText), nil
}
