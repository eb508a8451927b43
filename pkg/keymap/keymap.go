// Package keymap maps host keyboard keys onto the CHIP-8 hex keypad.
//
// The layout follows the COSMAC VIP keypad placed on the left of a QWERTY
// keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D      Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
package keymap

import "unicode"

const numKeys = 16

var layout = [numKeys]rune{
	0x0: 'x', 0x1: '1', 0x2: '2', 0x3: '3',
	0x4: 'q', 0x5: 'w', 0x6: 'e', 0x7: 'a',
	0x8: 's', 0x9: 'd', 0xA: 'z', 0xB: 'c',
	0xC: '4', 0xD: 'r', 0xE: 'f', 0xF: 'v',
}

// HostRune returns the host key for a CHIP-8 key, or 0 for keys above 0xF.
func HostRune(key uint8) rune {
	if int(key) >= numKeys {
		return 0
	}
	return layout[key]
}

// KeyForRune returns the CHIP-8 key for a host key, ignoring case.
func KeyForRune(r rune) (uint8, bool) {
	r = unicode.ToLower(r)
	for key, host := range layout {
		if host == r {
			return uint8(key), true
		}
	}
	return 0, false
}

// Latch turns key press events into held key states. Terminals only report
// presses, so a pressed key is held for a fixed number of frames.
type Latch struct {
	hold      int
	remaining [numKeys]int
}

// NewLatch returns a latch holding each press for hold frames.
func NewLatch(hold int) *Latch {
	if hold < 1 {
		hold = 1
	}
	return &Latch{hold: hold}
}

// Press marks key as held, restarting its hold period.
func (l *Latch) Press(key uint8) {
	if int(key) < numKeys {
		l.remaining[key] = l.hold
	}
}

// Tick ages all held keys by one frame.
func (l *Latch) Tick() {
	for i, n := range l.remaining {
		if n > 0 {
			l.remaining[i] = n - 1
		}
	}
}

// State returns which keys are currently held.
func (l *Latch) State() [numKeys]bool {
	var state [numKeys]bool
	for i, n := range l.remaining {
		state[i] = n > 0
	}
	return state
}
