package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"gochip8/pkg/chip8"
)

const (
	lineHeight      = 13
	overlayMargin   = 6
	listingBefore   = 6
	listingAfter    = 12
	registerColumns = 4
)

var (
	textColor    = color.RGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}
	currentColor = color.RGBA{R: 0xFF, G: 0xFF, B: 0x60, A: 0xFF}
	blankColor   = color.RGBA{R: 0x64, G: 0x64, B: 0x64, A: 0xFF}
	opColor      = color.RGBA{R: 0x80, G: 0x8C, B: 0xFF, A: 0xFF}
	shadeColor   = color.RGBA{A: 0xC0}
)

// overlay draws the register table and a disassembly window around PC on
// top of the screen.
type overlay struct {
	visible bool
	shade   *ebiten.Image
}

func newOverlay(visible bool) *overlay {
	return &overlay{visible: visible}
}

func (o *overlay) draw(screen *ebiten.Image, g *Game) {
	if !o.visible {
		return
	}

	bounds := screen.Bounds()
	if o.shade == nil || o.shade.Bounds() != bounds {
		o.shade = ebiten.NewImage(bounds.Dx(), bounds.Dy())
		o.shade.Fill(shadeColor)
	}
	screen.DrawImage(o.shade, nil)

	face := basicfont.Face7x13
	y := overlayMargin + lineHeight
	for _, line := range registerLines(g.vm.Snapshot()) {
		text.Draw(screen, line, face, overlayMargin, y, textColor)
		y += lineHeight
	}
	text.Draw(screen, runnerStatus(g), face, overlayMargin, y, textColor)

	x := bounds.Dx() / 2
	y = overlayMargin + lineHeight
	for _, line := range listingWindow(g.vm, listingBefore, listingAfter) {
		prefix := fmt.Sprintf("%04x: %02x%02x ", line.Address, line.Hi, line.Lo)
		c := textColor
		switch {
		case line.Current:
			c = currentColor
		case line.Blank:
			c = blankColor
		}
		text.Draw(screen, prefix, face, x, y, c)
		ox := x + text.BoundString(face, prefix).Dx() + 4
		text.Draw(screen, line.Mnemonic, face, ox, y, opColor)
		ox += text.BoundString(face, strings.Repeat("M", 11)).Dx()
		text.Draw(screen, line.Operands, face, ox, y, c)
		y += lineHeight
	}
}

func runnerStatus(g *Game) string {
	state := "running"
	switch {
	case g.runner.Halted():
		state = "halted: " + g.runner.Err().Error()
	case g.runner.Paused():
		state = "paused (N steps)"
	}
	if g.status != "" {
		state += " | " + g.status
	}
	return fmt.Sprintf("%d ips | %s", g.runner.IPS(), state)
}

// registerLines formats the machine registers as short text rows.
func registerLines(s chip8.State) []string {
	var lines []string
	var row []string
	for i, v := range s.V {
		row = append(row, fmt.Sprintf("V%X=%02X", i, v))
		if len(row) == registerColumns {
			lines = append(lines, strings.Join(row, " "))
			row = nil
		}
	}
	lines = append(lines,
		fmt.Sprintf("PC=%03X I=%03X SP=%X", s.PC, s.I, s.SP),
		fmt.Sprintf("DT=%02X ST=%02X", s.Delay, s.Sound),
	)

	stack := make([]string, len(s.Stack))
	for i, addr := range s.Stack {
		stack[i] = fmt.Sprintf("%03X", addr)
	}
	lines = append(lines, "STACK "+strings.Join(stack, " "))
	return lines
}

// listingWindow disassembles the words around PC. The window is aligned to
// PC so odd program counters still list the executing instruction.
func listingWindow(vm *chip8.Machine, before, after int) []chip8.Line {
	pc := int(vm.PC())
	start := max(pc-before*2, 0)
	end := min(pc+(after+1)*2, chip8.MemorySize)
	return chip8.DisassembleRange(vm.Memory(), start, end, vm.PC())
}

// programListing disassembles size bytes of program memory.
func programListing(vm *chip8.Machine, size int) string {
	lines := chip8.DisassembleRange(vm.Memory(), chip8.ProgramStart, chip8.ProgramStart+size+size%2, vm.PC())
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
