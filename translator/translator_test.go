package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChainFirstProviderWins(t *testing.T) {
	first := &FakeProvider{Tag: "deepl", Out: "hola"}
	second := &FakeProvider{Tag: "libre", Out: "should not be used"}
	c := NewChain(first, second)

	got := c.Process(context.Background(), "hello", "es")
	want := "hello -> hola [deepl]"
	if got != want {
		t.Errorf("Process = %q, want %q", got, want)
	}
	if second.Calls != 0 {
		t.Errorf("second provider called %d times, want 0", second.Calls)
	}
}

func TestChainFallsThroughOnError(t *testing.T) {
	first := &FakeProvider{Tag: "deepl", Err: errors.New("quota exhausted")}
	second := &FakeProvider{Tag: "libre", Out: "hola"}
	c := NewChain(first, second)

	translated, tag := c.Translate(context.Background(), "hello", "es")
	if translated != "hola" || tag != "libre" {
		t.Errorf("Translate = %q, %q; want hola, libre", translated, tag)
	}
	if first.Calls != 1 {
		t.Errorf("first provider called %d times, want 1", first.Calls)
	}
}

func TestChainTotalFailure(t *testing.T) {
	c := NewChain(&FakeProvider{Tag: "deepl", Err: errors.New("down")})

	translated, tag := c.Translate(context.Background(), "hello", "es")
	if tag != "none" {
		t.Errorf("tag = %q, want none", tag)
	}
	if !strings.Contains(translated, "ES") {
		t.Errorf("placeholder should name the target language, got %q", translated)
	}
}

func TestChainEmptyInput(t *testing.T) {
	c := NewChain(&FakeProvider{Tag: "deepl", Out: "x"})
	if translated, _ := c.Translate(context.Background(), "   ", "es"); translated != "" {
		t.Errorf("whitespace input should translate to empty, got %q", translated)
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		in                        string
		original, translated, tag string
	}{
		{"hello -> hola [deepl]", "hello", "hola", "deepl"},
		{"a -> b [local]", "a", "b", "local"},
		{"no arrow here", "no arrow here", "", ""},
		{"x -> y", "x", "y", ""},
	}
	for _, c := range cases {
		o, tr, tag := Split(c.in)
		if o != c.original || tr != c.translated || tag != c.tag {
			t.Errorf("Split(%q) = %q, %q, %q; want %q, %q, %q",
				c.in, o, tr, tag, c.original, c.translated, c.tag)
		}
	}
}

func TestLocalDictionary(t *testing.T) {
	l := NewLocal()

	out, err := l.Translate(context.Background(), "Grazie dottore!", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "thank you doctor" {
		t.Errorf("got %q, want %q", out, "thank you doctor")
	}

	if _, err := l.Translate(context.Background(), "completely unknown words", "en"); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestLibreTranslate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %q, want /translate", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"translatedText": " hola "})
	}))
	defer srv.Close()

	l := NewLibre(srv.URL + "/")
	out, err := l.Translate(context.Background(), "hello", "ES")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "hola" {
		t.Errorf("got %q, want hola", out)
	}
	if gotBody["q"] != "hello" || gotBody["target"] != "es" || gotBody["source"] != "auto" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestDeepLTranslate(t *testing.T) {
	var gotAuth, gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotTarget = r.FormValue("target_lang")
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "hola"}},
		})
	}))
	defer srv.Close()

	d := NewDeepL("test-key", filepath.Join(t.TempDir(), "usage.json"))
	d.apiURL = srv.URL

	out, err := d.Translate(context.Background(), "hello", "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "hola" {
		t.Errorf("got %q, want hola", out)
	}
	if gotAuth != "DeepL-Auth-Key test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotTarget != "ES" {
		t.Errorf("target_lang = %q, want ES", gotTarget)
	}
}

func TestDeepLUsagePersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "x"}},
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "usage.json")

	d := NewDeepL("k", path)
	d.apiURL = srv.URL
	if _, err := d.Translate(context.Background(), "hello", "es"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if used, _ := d.Usage(); used != len("hello") {
		t.Errorf("used = %d, want %d", used, len("hello"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("usage file not written: %v", err)
	}
	var f usageFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("usage file not JSON: %v", err)
	}
	if f.CharactersUsed != len("hello") {
		t.Errorf("persisted count = %d, want %d", f.CharactersUsed, len("hello"))
	}

	// A fresh instance picks the count back up.
	d2 := NewDeepL("k", path)
	if used, _ := d2.Usage(); used != len("hello") {
		t.Errorf("reloaded count = %d, want %d", used, len("hello"))
	}
}

func TestDeepLBudgetExhausted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	data, _ := json.Marshal(usageFile{CharactersUsed: deeplMaxChars})
	os.WriteFile(path, data, 0644)

	d := NewDeepL("k", path)
	if _, err := d.Translate(context.Background(), "hello", "es"); err == nil {
		t.Fatal("expected budget-exhausted error")
	}
}
