package hotkey

import "parley/ptt"

type FakeHotkey struct {
	events chan ptt.KeyEvent
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{events: make(chan ptt.KeyEvent, 64)}
}

func (f *FakeHotkey) Register() error { return nil }
func (f *FakeHotkey) Unregister()     {}

func (f *FakeHotkey) Events() <-chan ptt.KeyEvent { return f.events }

func (f *FakeHotkey) Press(dir ptt.Direction)   { f.events <- ptt.KeyEvent{Direction: dir, Down: true} }
func (f *FakeHotkey) Release(dir ptt.Direction) { f.events <- ptt.KeyEvent{Direction: dir, Down: false} }
