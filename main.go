package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/rom"
	"gochip8/pkg/runner"
)

func main() {
	opts, err := config.ParseCLI(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	if err := run(context.Background(), opts, logger, os.Stdout); err != nil {
		logger.Error("gochip8 failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts config.CLIOptions, logger *log.Logger, out io.Writer) error {
	img, err := rom.Load(opts.ROM)
	if err != nil {
		return err
	}

	vm := chip8.NewMachine()
	vm.Logger = logger
	if err := vm.LoadROM(img.Data); err != nil {
		return err
	}

	if opts.Disasm {
		writeListing(out, vm, len(img.Data))
	}

	if opts.Frames > 0 {
		r := runner.New(vm, opts.IPS, opts.Fault, logger)
		if err := r.Run(ctx, opts.Frames); err != nil {
			return fmt.Errorf("running %s: %w", img.Name, err)
		}
		writeState(out, img.Name, vm.Snapshot(), r)
	}

	if opts.Screenshot != "" {
		if err := vm.SaveScreenshot(opts.Screenshot, 8); err != nil {
			return fmt.Errorf("writing screenshot %q: %w", opts.Screenshot, err)
		}
		logger.Info("Screenshot written", log.String("file", opts.Screenshot))
	}
	return nil
}

func writeListing(out io.Writer, vm *chip8.Machine, size int) {
	end := chip8.ProgramStart + size + size%2
	for _, line := range chip8.DisassembleRange(vm.Memory(), chip8.ProgramStart, end, vm.PC()) {
		fmt.Fprintln(out, line.String())
	}
}

func writeState(out io.Writer, name string, s chip8.State, r *runner.Runner) {
	regs := make([]string, len(s.V))
	for i, v := range s.V {
		regs[i] = fmt.Sprintf("V%X=%02X", i, v)
	}

	fmt.Fprintf(out,
		"run complete (%s): frames=%d steps=%d PC=0x%03X I=0x%03X SP=%d DT=%d ST=%d\n%s\n",
		name,
		r.Frames(),
		r.Steps(),
		s.PC,
		s.I,
		s.SP,
		s.Delay,
		s.Sound,
		strings.Join(regs, " "),
	)
	if err := r.Err(); err != nil {
		fmt.Fprintf(out, "halted: %v\n", err)
	}
}
