// Package runner drives a CHIP-8 machine: it decides how many instructions
// run per frame, ticks the timers at 60 Hz and applies the fault policy.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/chip8"
)

// TimerHz is the rate of the delay and sound timers and of frames.
const TimerHz = 60

// FaultPolicy selects what happens when the machine reports an error.
type FaultPolicy int

const (
	// FaultHalt stops execution but keeps the frontend running.
	FaultHalt FaultPolicy = iota
	// FaultSkip steps over unknown instructions. Machine faults still halt.
	FaultSkip
	// FaultAbort returns the error to the frontend.
	FaultAbort
)

var policyNames = map[FaultPolicy]string{
	FaultHalt:  "halt",
	FaultSkip:  "skip",
	FaultAbort: "abort",
}

func (p FaultPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("FaultPolicy(%d)", int(p))
}

// ParseFaultPolicy parses a policy name.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return FaultHalt, fmt.Errorf("unknown fault policy %q", s)
}

// Machine is the part of *chip8.Machine the runner needs.
type Machine interface {
	Step() error
	Skip()
	TickTimers()
	PC() uint16
}

// Runner executes a machine at a fixed instruction rate.
type Runner struct {
	vm     Machine
	ips    int
	policy FaultPolicy
	logger *log.Logger

	credit float64
	frames uint64
	steps  uint64
	halt   error
	paused bool
}

// New returns a runner executing ips instructions per second. logger may be nil.
func New(vm Machine, ips int, policy FaultPolicy, logger *log.Logger) *Runner {
	return &Runner{
		vm:     vm,
		ips:    ips,
		policy: policy,
		logger: logger,
	}
}

// Reset clears the halt state and counters, typically after a ROM load.
func (r *Runner) Reset() {
	r.credit = 0
	r.frames = 0
	r.steps = 0
	r.halt = nil
}

// Err returns the error that halted execution, or nil.
func (r *Runner) Err() error { return r.halt }

// Halted reports whether execution stopped on an error.
func (r *Runner) Halted() bool { return r.halt != nil }

// Frames returns the number of frames run since the last Reset.
func (r *Runner) Frames() uint64 { return r.frames }

// Steps returns the number of instructions executed since the last Reset.
func (r *Runner) Steps() uint64 { return r.steps }

// Paused reports whether instruction execution is suspended.
func (r *Runner) Paused() bool { return r.paused }

// SetPaused suspends or resumes execution. Timers keep running while paused.
func (r *Runner) SetPaused(paused bool) { r.paused = paused }

// IPS returns the instruction rate.
func (r *Runner) IPS() int { return r.ips }

// SetIPS changes the instruction rate. Values below 1 are ignored.
func (r *Runner) SetIPS(ips int) {
	if ips > 0 {
		r.ips = ips
	}
}

// StepsPerFrame returns how many instructions the next frame will execute.
func (r *Runner) StepsPerFrame() int {
	return int(r.credit + float64(r.ips)/TimerHz)
}

// RunFrame executes one frame worth of instructions and ticks the timers
// once. It returns an error only under FaultAbort.
func (r *Runner) RunFrame() error {
	r.frames++

	if !r.paused && r.halt == nil {
		r.credit += float64(r.ips) / TimerHz
		n := int(r.credit)
		r.credit -= float64(n)

		for range n {
			if err := r.step(); err != nil {
				return err
			}
			if r.halt != nil {
				break
			}
		}
	}

	r.vm.TickTimers()
	return nil
}

// StepOnce executes a single instruction regardless of the pause state.
func (r *Runner) StepOnce() error {
	if r.halt != nil {
		return nil
	}
	return r.step()
}

func (r *Runner) step() error {
	pc := r.vm.PC()
	err := r.vm.Step()
	if err == nil {
		r.steps++
		return nil
	}

	var decodeErr *chip8.DecodeError
	if errors.As(err, &decodeErr) && r.policy == FaultSkip {
		if r.logger != nil {
			r.logger.Debug("Skipping unknown instruction",
				log.String("pc", fmt.Sprintf("0x%03X", pc)),
				log.String("opcode", fmt.Sprintf("%02X%02X", decodeErr.Hi, decodeErr.Lo)))
		}
		r.vm.Skip()
		return nil
	}

	r.halt = err
	if r.logger != nil {
		r.logger.Warn("Execution halted",
			log.String("pc", fmt.Sprintf("0x%03X", pc)),
			log.Err(err))
	}

	if r.policy == FaultAbort {
		return err
	}
	return nil
}

// Run executes frames frames back to back, without waiting for wall time.
func (r *Runner) Run(ctx context.Context, frames int) error {
	for range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// RunRealtime executes one frame every 1/60 s until ctx is done or onFrame
// returns an error. onFrame runs after each frame and may be nil.
func (r *Runner) RunRealtime(ctx context.Context, onFrame func() error) error {
	ticker := time.NewTicker(time.Second / TimerHz)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RunFrame(); err != nil {
				return err
			}
			if onFrame != nil {
				if err := onFrame(); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
