// Package announce provides audio-symbol announcer implementations.
package announce

import "io"

// Bell rings the terminal bell once per announced symbol. Terminals
// without audio still get a visual bell, and the letter itself is
// rendered by the UI, so this is strictly best-effort.
type Bell struct {
	W io.Writer
}

// Announce implements the announcer contract. Write failures are
// swallowed; an announcement must never interrupt a trial.
func (b Bell) Announce(string) {
	if b.W == nil {
		return
	}
	if _, err := b.W.Write([]byte("\a")); err != nil {
		// Best-effort announcement.
		_ = err
	}
}

// Nop discards announcements.
type Nop struct{}

// Announce implements the announcer contract.
func (Nop) Announce(string) {}
