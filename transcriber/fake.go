package transcriber

import (
	"context"

	"parley/recorder"
)

type FakeTranscriber struct {
	Text  string
	Err   error
	lang  string
	Calls int
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{Text: text, Err: err}
}

func (f *FakeTranscriber) Name() string           { return "fake" }
func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }
func (f *FakeTranscriber) Language() string        { return f.lang }

func (f *FakeTranscriber) Transcribe(_ context.Context, _ *recorder.Clip) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
