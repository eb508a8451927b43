package chip8

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"
)

// Memory map.
const (
	MemorySize       = 0x1000
	FontStart        = 0x000
	ProgramStart     = 0x200
	FramebufferStart = 0xF00
	FramebufferSize  = Width * Height / 8

	// MaxROMSize is the largest ROM that fits between ProgramStart and the
	// end of memory.
	MaxROMSize = MemorySize - ProgramStart
)

const (
	Width      = 64
	Height     = 32
	StackDepth = 16
	NumKeys    = 16
	NumRegs    = 16
)

var (
	ErrNoROM            = errors.New("no rom loaded")
	ErrROMTooLarge      = errors.New("rom too large")
	ErrStackOverflow    = errors.New("call stack overflow")
	ErrStackUnderflow   = errors.New("return with empty call stack")
	ErrMemoryOutOfRange = errors.New("memory access out of range")
	ErrKeyOutOfRange    = errors.New("key index out of range")
)

// MachineFault is returned by Step when an instruction violates the stack
// or memory bounds. The instruction has no effect and the machine stays
// halted until the next LoadROM.
type MachineFault struct {
	PC     uint16
	Hi, Lo byte
	Err    error

	// Fetch is set when the instruction itself could not be read. Hi holds
	// the last byte of memory and Lo is unused.
	Fetch bool
}

func (f *MachineFault) Error() string {
	if f.Fetch {
		return fmt.Sprintf("machine fault at $%03x: instruction fetch: %v", f.PC, f.Err)
	}
	return fmt.Sprintf("machine fault at $%03x (%02x%02x): %v", f.PC, f.Hi, f.Lo, f.Err)
}

func (f *MachineFault) Unwrap() error {
	return f.Err
}

// Machine is the CHIP-8 virtual machine: memory, registers, call stack,
// timers and keypad. It is not safe for concurrent use.
type Machine struct {
	memory [MemorySize]byte
	v      [NumRegs]byte
	i      uint16
	pc     uint16
	sp     uint8
	stack  [StackDepth]uint16
	delay  byte
	sound  byte
	keypad [NumKeys]bool

	loaded bool
	fault  *MachineFault

	// Random supplies the byte that RNDMSK masks. If nil, math/rand/v2 is used.
	Random func() byte
	// Logger receives ROM loads and faults. May be nil.
	Logger *log.Logger
}

// NewMachine returns a machine in its power-on state with no ROM loaded.
func NewMachine() *Machine {
	m := &Machine{}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.memory = [MemorySize]byte{}
	m.v = [NumRegs]byte{}
	m.i = 0
	m.pc = ProgramStart
	m.sp = 0
	m.stack = [StackDepth]uint16{}
	m.delay = 0
	m.sound = 0
	m.keypad = [NumKeys]bool{}
	m.loaded = false
	m.fault = nil

	addr := FontStart
	for _, glyph := range font {
		copy(m.memory[addr:], glyph[:])
		addr += FontGlyphSize
	}
}

// LoadROM resets the machine and copies rom to ProgramStart. A ROM larger
// than MaxROMSize is rejected and the machine is left untouched.
func (m *Machine) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	m.reset()
	copy(m.memory[ProgramStart:], rom)
	m.loaded = true

	if m.Logger != nil {
		m.Logger.Info("ROM loaded", log.Int("size", len(rom)))
	}
	return nil
}

// Step fetches, decodes and executes the instruction at PC.
//
// An unknown instruction returns a *DecodeError without changing any state.
// A stack or memory violation returns a *MachineFault and halts the machine.
func (m *Machine) Step() error {
	if m.fault != nil {
		return m.fault
	}
	if !m.loaded {
		return ErrNoROM
	}

	pc := m.pc
	if int(pc)+1 >= MemorySize {
		fault := &MachineFault{PC: pc, Err: ErrMemoryOutOfRange, Fetch: true}
		if int(pc) < MemorySize {
			fault.Hi = m.memory[pc]
		}
		return m.raise(fault)
	}
	hi, lo := m.memory[pc], m.memory[pc+1]

	in, err := Decode(hi, lo)
	if err != nil {
		return err
	}
	if err := m.execute(in); err != nil {
		return m.raise(&MachineFault{PC: pc, Hi: hi, Lo: lo, Err: err})
	}
	return nil
}

// raise halts the machine. Faults are the guest program's errors, so they
// are logged as warnings.
func (m *Machine) raise(fault *MachineFault) error {
	m.fault = fault
	if m.Logger != nil {
		m.Logger.Warn("Machine halted",
			log.String("pc", fmt.Sprintf("0x%03X", fault.PC)),
			log.Err(fault.Err))
	}
	return fault
}

// Skip advances PC past the current instruction without executing it.
func (m *Machine) Skip() {
	m.pc += 2
}

func (m *Machine) next() {
	m.pc += 2
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.pc += 2
	}
	m.pc += 2
}

// span checks that n bytes starting at addr are inside memory.
func span(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return fmt.Errorf("%w: %d bytes at $%04x", ErrMemoryOutOfRange, n, addr)
	}
	return nil
}

func (m *Machine) key(x uint8) (bool, error) {
	k := m.v[x]
	if k >= NumKeys {
		return false, fmt.Errorf("%w: V%X=%#02x", ErrKeyOutOfRange, x, k)
	}
	return m.keypad[k], nil
}

func (m *Machine) random() byte {
	if m.Random != nil {
		return m.Random()
	}
	return byte(rand.N(256))
}

func (m *Machine) execute(in Instruction) error {
	vx := m.v[in.X]
	vy := m.v[in.Y]

	switch in.Op {
	case OpCls:
		clear(m.memory[FramebufferStart : FramebufferStart+FramebufferSize])
		m.next()

	case OpRts:
		if m.sp == 0 {
			return ErrStackUnderflow
		}
		m.sp--
		m.pc = m.stack[m.sp]

	case OpJump:
		m.pc = in.Addr

	case OpCall:
		if m.sp >= StackDepth {
			return ErrStackOverflow
		}
		m.stack[m.sp] = m.pc + 2
		m.sp++
		m.pc = in.Addr

	case OpSkipEqLit:
		m.skipIf(vx == in.Lit)
	case OpSkipNeLit:
		m.skipIf(vx != in.Lit)
	case OpSkipEq:
		m.skipIf(vx == vy)
	case OpSkipNe:
		m.skipIf(vx != vy)

	case OpMviLit:
		m.v[in.X] = in.Lit
		m.next()
	case OpAdiLit:
		m.v[in.X] = vx + in.Lit
		m.next()

	case OpMov:
		m.v[in.X] = vy
		m.next()
	case OpOr:
		m.v[in.X] = vx | vy
		m.next()
	case OpAnd:
		m.v[in.X] = vx & vy
		m.next()
	case OpXor:
		m.v[in.X] = vx ^ vy
		m.next()

	// The result is written before VF, so VF as destination holds the flag.
	case OpAdd:
		sum := uint16(vx) + uint16(vy)
		m.v[in.X] = byte(sum)
		m.v[0xF] = flag(sum > 0xFF)
		m.next()
	case OpSub:
		m.v[in.X] = vx - vy
		m.v[0xF] = flag(vx >= vy)
		m.next()
	case OpSubb:
		m.v[in.X] = vy - vx
		m.v[0xF] = flag(vy >= vx)
		m.next()
	case OpShr:
		m.v[in.X] = vx >> 1
		m.v[0xF] = vx & 0x01
		m.next()
	case OpShl:
		m.v[in.X] = vx << 1
		m.v[0xF] = vx >> 7
		m.next()

	case OpSetI:
		m.i = in.Addr
		m.next()
	case OpJumpPlusV0:
		m.pc = in.Addr + uint16(m.v[0])

	case OpRand:
		m.v[in.X] = m.random() & in.Lit
		m.next()

	case OpDraw:
		if err := span(m.i, int(in.Lit)); err != nil {
			return err
		}
		m.v[0xF] = flag(m.drawSprite(int(vx), int(vy), int(in.Lit)))
		m.next()

	case OpSkipKey, OpSkipNoKey:
		pressed, err := m.key(in.X)
		if err != nil {
			return err
		}
		m.skipIf(pressed == (in.Op == OpSkipKey))

	case OpGetDelay:
		m.v[in.X] = m.delay
		m.next()

	case OpGetKey:
		// PC stays put until a key is down, so the instruction repeats.
		for k, pressed := range m.keypad {
			if pressed {
				m.v[in.X] = byte(k)
				m.next()
				break
			}
		}

	case OpDelay:
		m.delay = vx
		m.next()
	case OpSound:
		m.sound = vx
		m.next()

	case OpAddI:
		m.i += uint16(vx)
		m.next()
	case OpSpriteChar:
		m.i = FontStart + uint16(vx)*FontGlyphSize
		m.next()

	case OpMovBcd:
		if err := span(m.i, 3); err != nil {
			return err
		}
		m.memory[m.i] = vx / 100
		m.memory[m.i+1] = vx / 10 % 10
		m.memory[m.i+2] = vx % 10
		m.next()

	case OpRegDump:
		if err := span(m.i, int(in.X)+1); err != nil {
			return err
		}
		copy(m.memory[m.i:], m.v[:in.X+1])
		m.next()
	case OpRegLoad:
		if err := span(m.i, int(in.X)+1); err != nil {
			return err
		}
		copy(m.v[:in.X+1], m.memory[m.i:])
		m.next()

	default:
		return fmt.Errorf("unhandled instruction %d", in.Op)
	}
	return nil
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// TickDelayTimer decrements the delay timer, stopping at zero.
func (m *Machine) TickDelayTimer() {
	if m.delay > 0 {
		m.delay--
	}
}

// TickSoundTimer decrements the sound timer, stopping at zero.
func (m *Machine) TickSoundTimer() {
	if m.sound > 0 {
		m.sound--
	}
}

// TickTimers decrements both timers. Callers invoke it at 60 Hz.
func (m *Machine) TickTimers() {
	m.TickDelayTimer()
	m.TickSoundTimer()
}

// SetKeypad replaces the state of all 16 keys.
func (m *Machine) SetKeypad(state [NumKeys]bool) {
	m.keypad = state
}

// SetKey updates a single key. Keys above 0xF are ignored.
func (m *Machine) SetKey(key uint8, pressed bool) {
	if key < NumKeys {
		m.keypad[key] = pressed
	}
}

func (m *Machine) Keypad() [NumKeys]bool { return m.keypad }

func (m *Machine) PC() uint16 { return m.pc }

func (m *Machine) I() uint16 { return m.i }

func (m *Machine) SP() uint8 { return m.sp }

func (m *Machine) Registers() [NumRegs]byte { return m.v }

func (m *Machine) DelayTimer() byte { return m.delay }

func (m *Machine) SoundTimer() byte { return m.sound }

// Loaded reports whether a ROM has been loaded since the last reset.
func (m *Machine) Loaded() bool { return m.loaded }

// Fault returns the fault that halted the machine, or nil.
func (m *Machine) Fault() error {
	if m.fault == nil {
		return nil
	}
	return m.fault
}

// Halted reports whether a fault stopped execution.
func (m *Machine) Halted() bool { return m.fault != nil }

// Stack returns a copy of the occupied call stack entries, oldest first.
func (m *Machine) Stack() []uint16 {
	out := make([]uint16, m.sp)
	copy(out, m.stack[:m.sp])
	return out
}

// Memory returns a copy of the full 4 KiB address space.
func (m *Machine) Memory() []byte {
	out := make([]byte, MemorySize)
	copy(out, m.memory[:])
	return out
}

// State is a copy of the registers, for diagnostic display.
type State struct {
	PC     uint16
	I      uint16
	SP     uint8
	V      [NumRegs]byte
	Stack  []uint16
	Delay  byte
	Sound  byte
	Halted bool
}

// Snapshot copies the current registers.
func (m *Machine) Snapshot() State {
	return State{
		PC:     m.pc,
		I:      m.i,
		SP:     m.sp,
		V:      m.v,
		Stack:  m.Stack(),
		Delay:  m.delay,
		Sound:  m.sound,
		Halted: m.fault != nil,
	}
}
