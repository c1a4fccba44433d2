// Package hotkey delivers raw push-to-talk key edges. Edges are
// deliberately unfiltered — auto-repeat downs and release bounce are passed
// through so the ptt controller can debounce them against its own clock.
package hotkey

import "parley/ptt"

type Hotkey interface {
	Register() error
	Unregister()
	Events() <-chan ptt.KeyEvent
}
