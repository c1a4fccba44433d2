// Package analysis asks an OpenAI-compatible chat model questions about
// the conversation so far.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultURL   = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-4o-mini"
)

const reviewPrompt = `You are assisting an interpreter in a clinical setting.
Review the conversation transcript below. Summarize the key points, list
any symptoms or instructions mentioned, and flag exchanges that look like
possible mistranslations or misunderstandings. Be brief and concrete.`

const queryPrompt = `You are assisting an interpreter in a clinical setting.
Answer the user's question using the conversation transcript as context.
If the transcript does not contain the answer, say so.`

type Client struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// New returns a client for api.openai.com. An empty key leaves the client
// unavailable; callers check Available before offering analysis.
func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		apiURL: defaultURL,
		model:  defaultModel,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetEndpoint points the client at a compatible server, e.g. a local
// llama.cpp or Ollama instance.
func (c *Client) SetEndpoint(url string) {
	if url != "" {
		c.apiURL = url
	}
}

func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

func (c *Client) Available() bool {
	return c.apiKey != "" || c.apiURL != defaultURL
}

// Review analyzes a whole transcript.
func (c *Client) Review(ctx context.Context, transcript string) (string, error) {
	if transcript == "" {
		return "", fmt.Errorf("no conversation to analyze yet")
	}
	return c.chat(ctx, reviewPrompt, "Transcript:\n\n"+transcript)
}

// Query answers a free-form question with the transcript as context.
func (c *Client) Query(ctx context.Context, question, transcript string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("empty question")
	}
	user := fmt.Sprintf("Transcript:\n\n%s\n\nQuestion: %s", transcript, question)
	return c.chat(ctx, queryPrompt, user)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("chat response parse error: %w", err)
	}
	if resp.StatusCode != 200 {
		msg := resp.Status
		if cResp.Error != nil {
			msg = cResp.Error.Message
		}
		return "", fmt.Errorf("chat API error: %s", msg)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return cResp.Choices[0].Message.Content, nil
}
