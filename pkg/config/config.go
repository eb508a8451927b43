// Package config parses command line options and sets up logging.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/runner"
)

const (
	DefaultIPS   = 700
	DefaultScale = 10
	DefaultHold  = 6
)

// ErrNoROM is returned when neither -rom nor a positional ROM path is given.
var ErrNoROM = errors.New("no rom file given")

// Options are shared by all frontends.
type Options struct {
	ROM    string
	IPS    int
	Fault  runner.FaultPolicy
	Debug  bool
	Quiet  bool
	policy string
}

func (o *Options) register(flags *flag.FlagSet) {
	flags.StringVar(&o.ROM, "rom", "", "rom file to load (may also be given as the first argument)")
	flags.IntVar(&o.IPS, "ips", DefaultIPS, "instructions executed per second")
	flags.StringVar(&o.policy, "fault", runner.FaultHalt.String(), "action on unknown instructions: halt, skip or abort")
	flags.BoolVar(&o.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&o.Quiet, "quiet", false, "only log errors")
}

func (o *Options) finish(flags *flag.FlagSet, romRequired bool) error {
	if o.ROM == "" && flags.NArg() > 0 {
		o.ROM = flags.Arg(0)
	}
	if romRequired && o.ROM == "" {
		return ErrNoROM
	}
	if o.IPS <= 0 {
		return fmt.Errorf("invalid -ips %d: must be positive", o.IPS)
	}

	policy, err := runner.ParseFaultPolicy(o.policy)
	if err != nil {
		return err
	}
	o.Fault = policy
	return nil
}

// DesktopOptions configure the windowed frontend.
type DesktopOptions struct {
	Options
	Scale   int
	Overlay bool
}

// ParseDesktop parses the desktop frontend flags. The ROM is optional since
// one can be dropped onto the window.
func ParseDesktop(args []string, output io.Writer) (DesktopOptions, error) {
	var opts DesktopOptions
	flags := newFlagSet("gochip8-desktop", output)
	opts.register(flags)
	flags.IntVar(&opts.Scale, "scale", DefaultScale, "window scale factor")
	flags.BoolVar(&opts.Overlay, "overlay", false, "show the debug overlay at start")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if opts.Scale < 1 {
		return opts, fmt.Errorf("invalid -scale %d: must be at least 1", opts.Scale)
	}
	return opts, opts.finish(flags, false)
}

// ConsoleOptions configure the terminal frontend.
type ConsoleOptions struct {
	Options
	Hold int
}

// ParseConsole parses the terminal frontend flags.
func ParseConsole(args []string, output io.Writer) (ConsoleOptions, error) {
	var opts ConsoleOptions
	flags := newFlagSet("gochip8-console", output)
	opts.register(flags)
	flags.IntVar(&opts.Hold, "hold", DefaultHold, "frames a key stays pressed after a terminal key press")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if opts.Hold < 1 {
		return opts, fmt.Errorf("invalid -hold %d: must be at least 1", opts.Hold)
	}
	return opts, opts.finish(flags, true)
}

// CLIOptions configure the batch command line tool.
type CLIOptions struct {
	Options
	Disasm     bool
	Frames     int
	Screenshot string
}

// ParseCLI parses the batch tool flags.
func ParseCLI(args []string, output io.Writer) (CLIOptions, error) {
	var opts CLIOptions
	flags := newFlagSet("gochip8", output)
	opts.register(flags)
	flags.BoolVar(&opts.Disasm, "disasm", false, "print a disassembly listing of the rom")
	flags.IntVar(&opts.Frames, "frames", 0, "run the rom headless for this many 60 Hz frames")
	flags.StringVar(&opts.Screenshot, "screenshot", "", "write the final screen to this PNG file")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if opts.Frames < 0 {
		return opts, fmt.Errorf("invalid -frames %d: must not be negative", opts.Frames)
	}
	return opts, opts.finish(flags, true)
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		flags.SetOutput(output)
	}
	return flags
}

// CreateLogger creates a logger with appropriate settings.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
