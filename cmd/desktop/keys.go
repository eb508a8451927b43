package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"gochip8/pkg/chip8"
	"gochip8/pkg/keymap"
)

var hostKeys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// keypadKeys returns the ebiten key bound to each CHIP-8 key.
func keypadKeys() [chip8.NumKeys]ebiten.Key {
	var keys [chip8.NumKeys]ebiten.Key
	for k := range keys {
		keys[k] = hostKeys[keymap.HostRune(uint8(k))]
	}
	return keys
}

var boundKeys = keypadKeys()

func pollKeypad() [chip8.NumKeys]bool {
	var state [chip8.NumKeys]bool
	for k, key := range boundKeys {
		state[k] = ebiten.IsKeyPressed(key)
	}
	return state
}
