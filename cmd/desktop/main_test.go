package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/rom"
	"gochip8/pkg/runner"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	opts := config.DesktopOptions{
		Options: config.Options{IPS: 600, Fault: runner.FaultHalt},
		Scale:   4,
	}
	vm := chip8.NewMachine()
	return newGame(vm, opts, log.NewTestLogger(t))
}

func TestMainWiringIntegration(t *testing.T) {
	g := newTestGame(t)

	// 6105: V1 = 5, 1202: loop forever
	img := &rom.Image{Name: "loop.ch8", Data: []byte{0x61, 0x05, 0x12, 0x02}}
	assert.NoError(t, g.load(img))
	assert.NoError(t, g.runFrame([chip8.NumKeys]bool{}))

	regs := g.vm.Registers()
	assert.Equal(t, byte(5), regs[1])
	assert.Equal(t, uint16(0x202), g.vm.PC())
	assert.Equal(t, uint64(10), g.runner.Steps())

	w, h := g.Layout(0, 0)
	assert.Equal(t, 256, w)
	assert.Equal(t, 128, h)
}

func TestReloadRestartsHaltedProgram(t *testing.T) {
	g := newTestGame(t)

	// 00EE with an empty stack faults on the first step.
	img := &rom.Image{Name: "bad.ch8", Data: []byte{0x00, 0xEE}}
	assert.NoError(t, g.load(img))
	assert.NoError(t, g.runFrame([chip8.NumKeys]bool{}))
	assert.True(t, g.runner.Halted())

	g.reload()
	assert.Equal(t, "", g.status)
	assert.False(t, g.runner.Halted())
	assert.False(t, g.vm.Halted())
}

func TestReloadReportsLoadError(t *testing.T) {
	g := newTestGame(t)

	// the test logger fails the test on error records
	var logged bytes.Buffer
	g.logger = log.NewWithConfig(log.Config{Level: log.ErrorLevel, Output: &logged})

	g.rom = &rom.Image{Name: "huge.ch8", Data: make([]byte, chip8.MaxROMSize+1)}
	g.reload()

	assert.Equal(t, "rom too large: 3585 bytes > 3584 bytes", g.status)
	assert.True(t, strings.Contains(logged.String(), "Reloading ROM failed"))
	assert.False(t, g.vm.Loaded())
}

func TestKeypadKeysAreAllBound(t *testing.T) {
	keys := keypadKeys()
	seen := map[ebiten.Key]bool{}
	for _, key := range keys {
		assert.False(t, seen[key])
		seen[key] = true
	}
	assert.Equal(t, chip8.NumKeys, len(seen))
	assert.Equal(t, ebiten.KeyX, keys[0x0])
	assert.Equal(t, ebiten.KeyDigit1, keys[0x1])
	assert.Equal(t, ebiten.KeyV, keys[0xF])
}

func TestRegisterLines(t *testing.T) {
	s := chip8.State{PC: 0x202, I: 0x123, SP: 1, Stack: []uint16{0x204}, Delay: 0x3C}
	s.V[0xF] = 0x01

	lines := registerLines(s)
	assert.Equal(t, "V0=00 V1=00 V2=00 V3=00", lines[0])
	assert.Equal(t, "VC=00 VD=00 VE=00 VF=01", lines[3])
	assert.Equal(t, "PC=202 I=123 SP=1", lines[4])
	assert.Equal(t, "DT=3C ST=00", lines[5])
	assert.Equal(t, "STACK 204", lines[6])
}

func TestProgramListing(t *testing.T) {
	vm := chip8.NewMachine()
	assert.NoError(t, vm.LoadROM([]byte{0xA1, 0x23, 0x00, 0xE0, 0x12}))

	listing := programListing(vm, 5)
	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, ">0200: a123 MVI        I, #$123", lines[0])
	assert.Equal(t, " 0202: 00e0 CLS", lines[1])
	assert.Equal(t, " 0204: 1200 JUMP       $200", lines[2])
}

func TestListingWindowFollowsPC(t *testing.T) {
	vm := chip8.NewMachine()
	assert.NoError(t, vm.LoadROM([]byte{0x12, 0x00}))

	lines := listingWindow(vm, 2, 3)
	assert.Equal(t, 6, len(lines))
	assert.Equal(t, uint16(0x1FC), lines[0].Address)
	assert.True(t, lines[2].Current)
}

func TestRunFrameAppliesKeypad(t *testing.T) {
	g := newTestGame(t)

	// F10A: wait for a key into V1
	img := &rom.Image{Name: "key.ch8", Data: []byte{0xF1, 0x0A}}
	assert.NoError(t, g.load(img))
	assert.NoError(t, g.runFrame([chip8.NumKeys]bool{}))
	assert.Equal(t, uint16(0x200), g.vm.PC())

	assert.NoError(t, g.runFrame([chip8.NumKeys]bool{0x5: true}))
	assert.Equal(t, byte(5), g.vm.Registers()[1])
	assert.Equal(t, [chip8.NumKeys]bool{0x5: true}, g.vm.Keypad())
}
