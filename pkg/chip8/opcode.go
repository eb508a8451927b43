package chip8

import "fmt"

// Op identifies one of the CHIP-8 instructions.
type Op uint8

const (
	OpCls Op = iota
	OpRts
	OpJump
	OpCall
	OpSkipEqLit
	OpSkipNeLit
	OpSkipEq
	OpMviLit
	OpAdiLit
	OpMov
	OpOr
	OpAnd
	OpXor
	OpAdd
	OpSub
	OpShr
	OpSubb
	OpShl
	OpSkipNe
	OpSetI
	OpJumpPlusV0
	OpRand
	OpDraw
	OpSkipKey
	OpSkipNoKey
	OpGetDelay
	OpGetKey
	OpDelay
	OpSound
	OpAddI
	OpSpriteChar
	OpMovBcd
	OpRegDump
	OpRegLoad

	opCount
)

// Instruction is a decoded CHIP-8 instruction. Which operand fields carry
// meaning depends on Op:
//
//	no operands:           Cls, Rts
//	Addr:                  Jump, Call, SetI, JumpPlusV0
//	X, Lit:                SkipEqLit, SkipNeLit, MviLit, AdiLit, Rand
//	X, Y:                  SkipEq, SkipNe, Mov, Or, And, Xor, Add, Sub, Subb
//	X, Y, Lit (4 bit):     Draw
//	X:                     Shr, Shl, SkipKey, SkipNoKey, GetDelay, GetKey,
//	                       Delay, Sound, AddI, SpriteChar, MovBcd, RegDump, RegLoad
//
// Unused fields are always zero, so two decodes of the same bytes compare equal.
type Instruction struct {
	Op   Op
	X    uint8
	Y    uint8
	Lit  uint8
	Addr uint16
}

// DecodeError is returned for two bytes that do not form a known instruction.
type DecodeError struct {
	Hi byte
	Lo byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bad instruction: %02x %02x", e.Hi, e.Lo)
}

// Decode parses the big-endian instruction made of hi and lo.
// Alignment is not checked; any two bytes can be decoded.
func Decode(hi, lo byte) (Instruction, error) {
	addr := uint16(hi&0x0F)<<8 | uint16(lo)
	x := hi & 0x0F
	y := lo >> 4
	n := lo & 0x0F

	switch hi >> 4 {
	case 0x0:
		// the X nibble of 0NE0 and 0NEE is not part of the opcode
		switch lo {
		case 0xE0:
			return Instruction{Op: OpCls}, nil
		case 0xEE:
			return Instruction{Op: OpRts}, nil
		}
	case 0x1:
		return Instruction{Op: OpJump, Addr: addr}, nil
	case 0x2:
		return Instruction{Op: OpCall, Addr: addr}, nil
	case 0x3:
		return Instruction{Op: OpSkipEqLit, X: x, Lit: lo}, nil
	case 0x4:
		return Instruction{Op: OpSkipNeLit, X: x, Lit: lo}, nil
	case 0x5:
		if n == 0 {
			return Instruction{Op: OpSkipEq, X: x, Y: y}, nil
		}
	case 0x6:
		return Instruction{Op: OpMviLit, X: x, Lit: lo}, nil
	case 0x7:
		return Instruction{Op: OpAdiLit, X: x, Lit: lo}, nil
	case 0x8:
		return decodeALU(hi, lo, x, y, n)
	case 0x9:
		if n == 0 {
			return Instruction{Op: OpSkipNe, X: x, Y: y}, nil
		}
	case 0xA:
		return Instruction{Op: OpSetI, Addr: addr}, nil
	case 0xB:
		return Instruction{Op: OpJumpPlusV0, Addr: addr}, nil
	case 0xC:
		return Instruction{Op: OpRand, X: x, Lit: lo}, nil
	case 0xD:
		return Instruction{Op: OpDraw, X: x, Y: y, Lit: n}, nil
	case 0xE:
		switch lo {
		case 0x9E:
			return Instruction{Op: OpSkipKey, X: x}, nil
		case 0xA1:
			return Instruction{Op: OpSkipNoKey, X: x}, nil
		}
	case 0xF:
		if op, ok := ioOps[lo]; ok {
			return Instruction{Op: op, X: x}, nil
		}
	}

	return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
}

// ioOps maps the low byte of an Fx?? opcode to its instruction.
var ioOps = map[byte]Op{
	0x07: OpGetDelay,
	0x0A: OpGetKey,
	0x15: OpDelay,
	0x18: OpSound,
	0x1E: OpAddI,
	0x29: OpSpriteChar,
	0x33: OpMovBcd,
	0x55: OpRegDump,
	0x65: OpRegLoad,
}

func decodeALU(hi, lo, x, y, n byte) (Instruction, error) {
	switch n {
	case 0x0:
		return Instruction{Op: OpMov, X: x, Y: y}, nil
	case 0x1:
		return Instruction{Op: OpOr, X: x, Y: y}, nil
	case 0x2:
		return Instruction{Op: OpAnd, X: x, Y: y}, nil
	case 0x3:
		return Instruction{Op: OpXor, X: x, Y: y}, nil
	case 0x4:
		return Instruction{Op: OpAdd, X: x, Y: y}, nil
	case 0x5:
		return Instruction{Op: OpSub, X: x, Y: y}, nil
	case 0x6:
		return Instruction{Op: OpShr, X: x}, nil
	case 0x7:
		return Instruction{Op: OpSubb, X: x, Y: y}, nil
	case 0xE:
		return Instruction{Op: OpShl, X: x}, nil
	}
	return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
}
