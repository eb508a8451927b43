package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
	"golang.design/x/clipboard"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/rom"
	"gochip8/pkg/runner"
)

const windowTitle = "gochip8"

type Game struct {
	vm     *chip8.Machine
	runner *runner.Runner
	logger *log.Logger
	scale  int

	rom       *rom.Image
	screenImg *ebiten.Image // reused 64×32 canvas
	overlay   *overlay
	status    string

	clipboardOnce sync.Once
	clipboardOK   bool
}

func newGame(vm *chip8.Machine, opts config.DesktopOptions, logger *log.Logger) *Game {
	return &Game{
		vm:      vm,
		runner:  runner.New(vm, opts.IPS, opts.Fault, logger),
		logger:  logger,
		scale:   opts.Scale,
		overlay: newOverlay(opts.Overlay),
	}
}

// load resets the machine with img and restarts execution.
func (g *Game) load(img *rom.Image) error {
	if err := g.vm.LoadROM(img.Data); err != nil {
		return err
	}
	g.rom = img
	g.runner.Reset()
	g.runner.SetPaused(false)
	g.status = ""
	ebiten.SetWindowTitle(fmt.Sprintf("%s - %s", windowTitle, img.Title()))
	return nil
}

func (g *Game) loadDropped() {
	files := ebiten.DroppedFiles()
	if files == nil {
		return
	}
	img, err := rom.LoadFS(files)
	if err == nil {
		err = g.load(img)
	}
	if err != nil {
		g.fail("Loading dropped ROM failed", err)
	}
}

// reload restarts the current ROM from its power-on state.
func (g *Game) reload() {
	if g.rom == nil {
		return
	}
	if err := g.load(g.rom); err != nil {
		g.fail("Reloading ROM failed", err)
	}
}

// fail shows err in the status line and logs it.
func (g *Game) fail(msg string, err error) {
	g.status = err.Error()
	g.logger.Error(msg, err)
}

func (g *Game) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		g.overlay.visible = !g.overlay.visible
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		g.copyListing()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.reload()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.runner.SetPaused(!g.runner.Paused())
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if g.runner.Paused() && g.vm.Loaded() {
			_ = g.runner.StepOnce()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.runner.SetIPS(g.runner.IPS() + 100)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.runner.SetIPS(g.runner.IPS() - 100)
	}
}

// copyListing puts the disassembly of the loaded program on the clipboard.
func (g *Game) copyListing() {
	if g.rom == nil {
		return
	}
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(programListing(g.vm, len(g.rom.Data))))
	g.status = "disassembly copied"
}

func (g *Game) Update() error {
	g.loadDropped()
	g.handleHotkeys()
	return g.runFrame(pollKeypad())
}

// runFrame applies the keypad state and runs one frame of the loaded program.
func (g *Game) runFrame(keys [chip8.NumKeys]bool) error {
	g.vm.SetKeypad(keys)
	if !g.vm.Loaded() {
		return nil
	}
	return g.runner.RunFrame()
}

func (g *Game) Draw(screen *ebiten.Image) {
	if !g.vm.Loaded() {
		ebitenutil.DebugPrintAt(screen, "Drop a CHIP-8 ROM onto this window", 8, 8)
		if g.status != "" {
			ebitenutil.DebugPrintAt(screen, g.status, 8, 24)
		}
		return
	}

	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(chip8.Width, chip8.Height)
	}
	g.screenImg.WritePixels(g.vm.GetFramebufferRGBA(chip8.DefaultPalette))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.screenImg, op)

	g.overlay.draw(screen, g)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return chip8.Width * g.scale, chip8.Height * g.scale
}

func main() {
	opts, err := config.ParseDesktop(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	vm := chip8.NewMachine()
	vm.Logger = logger
	game := newGame(vm, opts, logger)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(chip8.Width*opts.Scale, chip8.Height*opts.Scale)
	ebiten.SetWindowTitle(windowTitle)

	if opts.ROM != "" {
		img, err := rom.Load(opts.ROM)
		if err == nil {
			err = game.load(img)
		}
		if err != nil {
			logger.Error("Loading ROM failed", err)
			os.Exit(1)
		}
	}

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("Running emulator failed", err)
		os.Exit(1)
	}
}
