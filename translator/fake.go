package translator

import "context"

type FakeProvider struct {
	Tag   string
	Out   string
	Err   error
	Calls int
}

func (f *FakeProvider) Name() string { return f.Tag }

func (f *FakeProvider) Translate(_ context.Context, text, _ string) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	if f.Out != "" {
		return f.Out, nil
	}
	return text, nil
}
