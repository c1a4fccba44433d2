package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"parley/ptt"
	"parley/recorder"
	"parley/transcriber"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MIN_PRESS_MS", "INPUT_GAIN", "SOURCE_LANG", "TARGET_LANG",
		"WHISPER_MODEL", "AUDIO_FORMAT", "DB_PATH", "RETAIN_CLIPS",
		"CLIP_DIR", "TTS_ENABLED", "SUMMARY_TURNS", "MIN_CLIP_BYTES",
		"HALLUCINATION_MARKERS",
	} {
		// t.Setenv registers the restore; unset so godotenv can apply
		// .env values (it never overrides set variables).
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	c := Load(filepath.Join(t.TempDir(), "nonexistent.env"))

	if c.Debounce != 350*time.Millisecond {
		t.Errorf("Debounce = %v, want 350ms", c.Debounce)
	}
	if c.Gain != 1.0 {
		t.Errorf("Gain = %v, want 1.0", c.Gain)
	}
	if c.SourceLang != "it" || c.TargetLang != "en" {
		t.Errorf("langs = %s/%s, want it/en", c.SourceLang, c.TargetLang)
	}
	if c.AudioFormat != "wav" {
		t.Errorf("AudioFormat = %q, want wav", c.AudioFormat)
	}
	if !c.TTSEnabled {
		t.Error("TTS should default on")
	}
	if c.MinClipBytes != recorder.MinClipBytes {
		t.Errorf("MinClipBytes = %d, want %d", c.MinClipBytes, recorder.MinClipBytes)
	}
	if len(c.Hallucinations) == 0 || c.Hallucinations[0] != transcriber.DefaultHallucinations[0] {
		t.Errorf("Hallucinations = %v, want defaults", c.Hallucinations)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_PRESS_MS", "500")
	t.Setenv("INPUT_GAIN", "2.5")
	t.Setenv("TARGET_LANG", "es")
	t.Setenv("TTS_ENABLED", "false")
	t.Setenv("MIN_CLIP_BYTES", "6000")
	t.Setenv("HALLUCINATION_MARKERS", "thanks for watching, like and subscribe")

	c := Load(filepath.Join(t.TempDir(), "nonexistent.env"))
	if c.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", c.Debounce)
	}
	if c.Gain != 2.5 {
		t.Errorf("Gain = %v, want 2.5", c.Gain)
	}
	if c.TargetLang != "es" {
		t.Errorf("TargetLang = %q, want es", c.TargetLang)
	}
	if c.TTSEnabled {
		t.Error("TTS_ENABLED=false not honored")
	}
	if c.MinClipBytes != 6000 {
		t.Errorf("MinClipBytes = %d, want 6000", c.MinClipBytes)
	}
	want := []string{"thanks for watching", "like and subscribe"}
	if len(c.Hallucinations) != 2 || c.Hallucinations[0] != want[0] || c.Hallucinations[1] != want[1] {
		t.Errorf("Hallucinations = %v, want %v", c.Hallucinations, want)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_PRESS_MS", "soon")
	t.Setenv("INPUT_GAIN", "loud")

	c := Load(filepath.Join(t.TempDir(), "nonexistent.env"))
	if c.Debounce != 350*time.Millisecond {
		t.Errorf("Debounce = %v, want default on parse failure", c.Debounce)
	}
	if c.Gain != 1.0 {
		t.Errorf("Gain = %v, want default on parse failure", c.Gain)
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("SOURCE_LANG=de\nMIN_PRESS_MS=400\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := Load(envPath)
	if c.SourceLang != "de" {
		t.Errorf("SourceLang = %q, want de from .env", c.SourceLang)
	}
	if c.Debounce != 400*time.Millisecond {
		t.Errorf("Debounce = %v, want 400ms from .env", c.Debounce)
	}
}

func TestDirectionLanguageMapping(t *testing.T) {
	c := &Config{SourceLang: "it", TargetLang: "en"}

	if got := c.TargetFor(ptt.Forward); got != "en" {
		t.Errorf("TargetFor(Forward) = %q, want en", got)
	}
	if got := c.TargetFor(ptt.Reverse); got != "it" {
		t.Errorf("TargetFor(Reverse) = %q, want it", got)
	}
	if got := c.SpokenLangFor(ptt.Forward); got != "it" {
		t.Errorf("SpokenLangFor(Forward) = %q, want it", got)
	}
	if got := c.SpokenLangFor(ptt.Reverse); got != "en" {
		t.Errorf("SpokenLangFor(Reverse) = %q, want en", got)
	}
}
