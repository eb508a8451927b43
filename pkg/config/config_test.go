package config

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/runner"
)

func TestParseDesktopDefaults(t *testing.T) {
	opts, err := ParseDesktop(nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "", opts.ROM)
	assert.Equal(t, DefaultIPS, opts.IPS)
	assert.Equal(t, DefaultScale, opts.Scale)
	assert.Equal(t, runner.FaultHalt, opts.Fault)
	assert.False(t, opts.Overlay)
	assert.False(t, opts.Debug)
}

func TestParseDesktop(t *testing.T) {
	opts, err := ParseDesktop([]string{"-scale", "4", "-overlay", "-fault", "skip", "-ips", "1000", "pong.ch8"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "pong.ch8", opts.ROM)
	assert.Equal(t, 4, opts.Scale)
	assert.True(t, opts.Overlay)
	assert.Equal(t, runner.FaultSkip, opts.Fault)
	assert.Equal(t, 1000, opts.IPS)
}

func TestParseConsole(t *testing.T) {
	opts, err := ParseConsole([]string{"-rom", "tetris.ch8", "-hold", "3", "-quiet"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "tetris.ch8", opts.ROM)
	assert.Equal(t, 3, opts.Hold)
	assert.True(t, opts.Quiet)

	opts, err = ParseConsole([]string{"tetris.ch8"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, DefaultHold, opts.Hold)
}

func TestParseCLI(t *testing.T) {
	opts, err := ParseCLI([]string{"-disasm", "-frames", "120", "-screenshot", "out.png", "-fault", "abort", "ibm.ch8"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "ibm.ch8", opts.ROM)
	assert.True(t, opts.Disasm)
	assert.Equal(t, 120, opts.Frames)
	assert.Equal(t, "out.png", opts.Screenshot)
	assert.Equal(t, runner.FaultAbort, opts.Fault)
}

func TestParseErrors(t *testing.T) {
	var out bytes.Buffer

	_, err := ParseCLI(nil, &out)
	assert.True(t, errors.Is(err, ErrNoROM))

	_, err = ParseConsole(nil, &out)
	assert.True(t, errors.Is(err, ErrNoROM))

	_, err = ParseCLI([]string{"-frames", "-1", "a.ch8"}, &out)
	assert.Error(t, err, "invalid -frames -1: must not be negative")

	_, err = ParseCLI([]string{"-ips", "0", "a.ch8"}, &out)
	assert.Error(t, err, "invalid -ips 0: must be positive")

	_, err = ParseCLI([]string{"-fault", "ignore", "a.ch8"}, &out)
	assert.Error(t, err, `unknown fault policy "ignore"`)

	_, err = ParseDesktop([]string{"-scale", "0"}, &out)
	assert.Error(t, err, "invalid -scale 0: must be at least 1")

	_, err = ParseConsole([]string{"-hold", "0", "a.ch8"}, &out)
	assert.Error(t, err, "invalid -hold 0: must be at least 1")

	out.Reset()
	_, err = ParseDesktop([]string{"-unknown"}, &out)
	assert.Error(t, err, "flag provided but not defined: -unknown")
	assert.True(t, out.Len() > 0)

	_, err = ParseDesktop([]string{"-h"}, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestCreateLogger(t *testing.T) {
	assert.Equal(t, log.InfoLevel, CreateLogger(false, false).Level())
	assert.Equal(t, log.DebugLevel, CreateLogger(true, false).Level())
	assert.Equal(t, log.ErrorLevel, CreateLogger(false, true).Level())
}
