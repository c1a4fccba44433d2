package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"parley/log"
)

const (
	deeplFreeURL = "https://api-free.deepl.com/v2/translate"

	// The free tier allows 500k characters per month; stop a little
	// early so a long utterance cannot blow the quota mid-turn.
	deeplMaxChars  = 450000
	deeplQuotaFull = 500000
)

var deeplLangMap = map[string]string{
	"en": "EN-US",
	"it": "IT",
	"es": "ES",
	"fr": "FR",
	"de": "DE",
	"pt": "PT-PT",
}

// DeepL is the primary translation provider, character-budgeted against
// the free tier with the count persisted across runs.
type DeepL struct {
	apiKey string
	apiURL string
	client *http.Client
	usage  *usageCounter
}

func NewDeepL(apiKey, usagePath string) *DeepL {
	return &DeepL{
		apiKey: apiKey,
		apiURL: deeplFreeURL,
		client: &http.Client{Timeout: 10 * time.Second},
		usage:  newUsageCounter(usagePath),
	}
}

func (d *DeepL) Name() string { return "deepl" }

// Usage returns characters spent and the budget ceiling.
func (d *DeepL) Usage() (used, max int) {
	return d.usage.Used(), deeplMaxChars
}

func (d *DeepL) Translate(ctx context.Context, text, target string) (string, error) {
	if d.usage.Used()+len(text) > deeplMaxChars {
		return "", fmt.Errorf("deepl character budget exhausted (%d/%d)", d.usage.Used(), deeplMaxChars)
	}

	deeplTarget, ok := deeplLangMap[strings.ToLower(target)]
	if !ok {
		deeplTarget = "EN-US"
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", deeplTarget)

	req, err := http.NewRequestWithContext(ctx, "POST", d.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("deepl API error %d", resp.StatusCode)
	}

	var dResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dResp); err != nil {
		return "", fmt.Errorf("deepl response parse error: %w", err)
	}
	if len(dResp.Translations) == 0 {
		return "", fmt.Errorf("deepl returned no translations")
	}

	d.usage.Add(len(text))
	log.Infof("deepl translation: %d chars used (total %d/%d)", len(text), d.usage.Used(), deeplQuotaFull)

	return dResp.Translations[0].Text, nil
}

// usageCounter persists a monotonic character count to a JSON file.
type usageCounter struct {
	mu   sync.Mutex
	path string
	used int
}

func newUsageCounter(path string) *usageCounter {
	c := &usageCounter{path: path}
	c.load()
	return c
}

type usageFile struct {
	CharactersUsed int     `json:"characters_used"`
	MaxCharacters  int     `json:"max_characters"`
	PercentageUsed float64 `json:"percentage_used"`
}

func (c *usageCounter) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var f usageFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warnf("could not parse usage file %s: %v", c.path, err)
		return
	}
	c.used = f.CharactersUsed
}

func (c *usageCounter) Used() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

func (c *usageCounter) Add(n int) {
	c.mu.Lock()
	c.used += n
	used := c.used
	c.mu.Unlock()

	f := usageFile{
		CharactersUsed: used,
		MaxCharacters:  deeplQuotaFull,
		PercentageUsed: float64(used) / deeplQuotaFull * 100,
	}
	data, _ := json.MarshalIndent(f, "", "  ")
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		log.Warnf("could not save usage file %s: %v", c.path, err)
	}
}
