package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/keymap"
	"gochip8/pkg/rom"
	"gochip8/pkg/runner"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1B
)

// render draws the framebuffer with half block characters, two pixel rows
// per text line, followed by a status line.
func render(w io.Writer, vm *chip8.Machine, r *runner.Runner) error {
	var sb strings.Builder
	sb.WriteString("\x1b[H")
	for y := 0; y < chip8.Height; y += 2 {
		for x := 0; x < chip8.Width; x++ {
			top, bottom := vm.Pixel(x, y), vm.Pixel(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	status := fmt.Sprintf("PC=%03X I=%03X frames=%d", vm.PC(), vm.I(), r.Frames())
	if err := r.Err(); err != nil {
		status += " halted: " + err.Error()
	}
	sb.WriteString(status)
	sb.WriteString("\x1b[K\r\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// readKeys forwards bytes read from r until it fails.
func readKeys(r io.Reader, keys chan<- byte) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			close(keys)
			return
		}
		keys <- b
	}
}

// console owns the per-frame work of the terminal frontend.
type console struct {
	vm     *chip8.Machine
	runner *runner.Runner
	latch  *keymap.Latch
	keys   <-chan byte
	out    io.Writer
	cancel context.CancelFunc
}

func (c *console) frame() error {
drain:
	for {
		select {
		case b, ok := <-c.keys:
			if !ok {
				c.keys = nil
				break drain
			}
			if b == keyCtrlC || b == keyEscape {
				c.cancel()
				return nil
			}
			if key, ok := keymap.KeyForRune(rune(b)); ok {
				c.latch.Press(key)
			}
		default:
			break drain
		}
	}

	c.vm.SetKeypad(c.latch.State())
	c.latch.Tick()
	return render(c.out, c.vm, c.runner)
}

func run(opts config.ConsoleOptions, logger *log.Logger) error {
	img, err := rom.Load(opts.ROM)
	if err != nil {
		return err
	}

	vm := chip8.NewMachine()
	vm.Logger = logger
	if err := vm.LoadROM(img.Data); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("switching terminal to raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}

	keys := make(chan byte, 16)
	go readKeys(os.Stdin, keys)

	c := &console{
		vm:     vm,
		runner: runner.New(vm, opts.IPS, opts.Fault, logger),
		latch:  keymap.NewLatch(opts.Hold),
		keys:   keys,
		out:    os.Stdout,
		cancel: cancel,
	}

	fmt.Fprint(os.Stdout, "\x1b[2J")
	err = c.runner.RunRealtime(ctx, c.frame)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	opts, err := config.ParseConsole(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	if err := run(opts, logger); err != nil {
		logger.Error("Running emulator failed", err)
		os.Exit(1)
	}
}
