//go:build !linux

package hotkey

import (
	"fmt"
	"runtime"

	"parley/ptt"
)

// Raw key edges (including auto-repeat) are only available through evdev.
// Other platforms get a stub so the rest of the program still builds; the
// fake hotkey covers tests everywhere.
type stubHotkey struct {
	events chan ptt.KeyEvent
}

func New() Hotkey {
	return &stubHotkey{events: make(chan ptt.KeyEvent)}
}

func (h *stubHotkey) Register() error {
	return fmt.Errorf("raw key capture is not supported on %s", runtime.GOOS)
}

func (h *stubHotkey) Unregister() {}

func (h *stubHotkey) Events() <-chan ptt.KeyEvent {
	return h.events
}
