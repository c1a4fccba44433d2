// Package config loads runtime settings from the environment, with an
// optional .env file for development setups.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"parley/log"
	"parley/ptt"
	"parley/recorder"
	"parley/store"
	"parley/transcriber"
)

type Config struct {
	// Push-to-talk debounce window (MIN_PRESS_MS).
	Debounce time.Duration

	// Software input gain, clamped by the recorder (INPUT_GAIN).
	Gain float64

	// Silence gate threshold in PCM bytes (MIN_CLIP_BYTES).
	MinClipBytes int

	// Transcription artifacts treated as silence (HALLUCINATION_MARKERS).
	Hallucinations []string

	// Conversation languages. Forward captures SourceLang speech and
	// renders it in TargetLang; Reverse goes the other way.
	SourceLang string
	TargetLang string

	WhisperModel string
	AudioFormat  string // upload codec: wav or flac

	DBPath      string
	RetainClips bool
	ClipDir     string

	TTSEnabled bool

	OpenAIKey   string
	LLMEndpoint string
	LLMModel    string

	// How many recent turns feed the review prompt; 0 means all.
	SummaryTurns int
}

// Load reads the optional .env file, then the environment. envFile may be
// empty for the default "./.env".
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("could not load %s: %v", envFile, err)
		}
	}

	dbPath := getString("DB_PATH", store.DefaultDBPath())
	return &Config{
		Debounce:     time.Duration(getInt("MIN_PRESS_MS", 350)) * time.Millisecond,
		Gain:         getFloat("INPUT_GAIN", 1.0),
		MinClipBytes: getInt("MIN_CLIP_BYTES", recorder.MinClipBytes),
		Hallucinations: getList("HALLUCINATION_MARKERS",
			transcriber.DefaultHallucinations),
		SourceLang:   getString("SOURCE_LANG", "it"),
		TargetLang:   getString("TARGET_LANG", "en"),
		WhisperModel: getString("WHISPER_MODEL", "whisper-1"),
		AudioFormat:  getString("AUDIO_FORMAT", "wav"),
		DBPath:       dbPath,
		RetainClips:  getBool("RETAIN_CLIPS", false),
		ClipDir:      getString("CLIP_DIR", filepath.Join(filepath.Dir(dbPath), "clips")),
		TTSEnabled:   getBool("TTS_ENABLED", true),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		LLMEndpoint:  os.Getenv("LLM_ENDPOINT"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		SummaryTurns: getInt("SUMMARY_TURNS", 0),
	}
}

// TargetFor returns the language to translate into for a direction.
func (c *Config) TargetFor(dir ptt.Direction) string {
	if dir == ptt.Reverse {
		return c.SourceLang
	}
	return c.TargetLang
}

// SpokenLangFor returns the language being spoken into the mic for a
// direction, used to pin the transcriber.
func (c *Config) SpokenLangFor(dir ptt.Direction) string {
	if dir == ptt.Reverse {
		return c.TargetLang
	}
	return c.SourceLang
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		log.Warnf("invalid %s: %q", key, v)
		return fallback
	}
	return out
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("invalid %s: %q", key, v)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("invalid %s: %q", key, v)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("invalid %s: %q", key, v)
		return fallback
	}
	return b
}
