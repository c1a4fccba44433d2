package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrapText(t *testing.T) {
	cases := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"short", 10, []string{"short"}},
		{"wrap on the last space", 12, []string{"wrap on the", "last space"}},
		{"unbreakablelongword", 8, []string{"unbreaka", "blelongw", "ord"}},
		{"a  b", 0, []string{"a", "b"}},
	}
	for _, c := range cases {
		got := wrapText(c.text, c.width)
		if len(got) != len(c.want) {
			t.Errorf("wrapText(%q, %d) = %q, want %q", c.text, c.width, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("wrapText(%q, %d)[%d] = %q, want %q", c.text, c.width, i, got[i], c.want[i])
			}
		}
	}
}

func TestWrapTextKeepsRunesIntact(t *testing.T) {
	text := "però è già così perché più città"
	for width := 1; width < len(text); width++ {
		for _, line := range wrapText(text, width) {
			if !utf8.ValidString(line) {
				t.Fatalf("width %d split a rune: %q", width, line)
			}
		}
	}
	joined := strings.Join(wrapText(text, 7), "")
	if strings.ReplaceAll(joined, " ", "") != strings.ReplaceAll(text, " ", "") {
		t.Error("wrapping dropped characters")
	}
}
