package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			json.NewDecoder(r.Body).Decode(capture)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestReview(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "Patient reports knee pain.", &got)
	defer srv.Close()

	c := New("key")
	c.SetEndpoint(srv.URL)

	out, err := c.Review(context.Background(), "[09:00:01] Source: where does it hurt\n  -> donde le duele")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if out != "Patient reports knee pain." {
		t.Errorf("got %q", out)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "donde le duele") {
		t.Error("transcript not included in request")
	}
}

func TestReviewEmptyTranscript(t *testing.T) {
	c := New("key")
	if _, err := c.Review(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestQueryIncludesQuestion(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "Twice a day.", &got)
	defer srv.Close()

	c := New("key")
	c.SetEndpoint(srv.URL)

	out, err := c.Query(context.Background(), "How often should the patient take it?", "transcript here")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out != "Twice a day." {
		t.Errorf("got %q", out)
	}
	if !strings.Contains(got.Messages[1].Content, "How often") {
		t.Error("question not included in request")
	}
	if !strings.Contains(got.Messages[1].Content, "transcript here") {
		t.Error("transcript not included in request")
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	c := New("key")
	c.SetEndpoint(srv.URL)
	_, err := c.Review(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want rate limited", err)
	}
}

func TestAvailable(t *testing.T) {
	if New("").Available() {
		t.Error("no key and default endpoint should be unavailable")
	}
	if !New("key").Available() {
		t.Error("key should make client available")
	}
	c := New("")
	c.SetEndpoint("http://localhost:11434/v1/chat/completions")
	if !c.Available() {
		t.Error("custom endpoint should make client available")
	}
}
