package chip8

import (
	"fmt"
	"strings"
)

// mnemonicWidth is the column width of the mnemonic in a listing line.
const mnemonicWidth = 10

var mnemonics = [opCount]string{
	OpCls:        "CLS",
	OpRts:        "RTS",
	OpJump:       "JUMP",
	OpCall:       "CALL",
	OpSkipEqLit:  "SKIP.EQ",
	OpSkipNeLit:  "SKIP.NE",
	OpSkipEq:     "SKIP.EQ",
	OpMviLit:     "MVI",
	OpAdiLit:     "ADI",
	OpMov:        "MOV",
	OpOr:         "OR",
	OpAnd:        "AND",
	OpXor:        "XOR",
	OpAdd:        "ADD.",
	OpSub:        "SUB.",
	OpShr:        "SHR.",
	OpSubb:       "SUBB.",
	OpShl:        "SHL.",
	OpSkipNe:     "SKIP.NE",
	OpSetI:       "MVI",
	OpJumpPlusV0: "JUMP",
	OpRand:       "RNDMSK",
	OpDraw:       "SPRITE",
	OpSkipKey:    "SKIP.KEY",
	OpSkipNoKey:  "SKIP.NOKEY",
	OpGetDelay:   "MOV",
	OpGetKey:     "WAITKEY",
	OpDelay:      "MOV",
	OpSound:      "MOV",
	OpAddI:       "ADD",
	OpSpriteChar: "SPRITECHAR",
	OpMovBcd:     "MOVBCD",
	OpRegDump:    "MOVM",
	OpRegLoad:    "MOVM",
}

// Mnemonic returns the assembler mnemonic of the instruction.
func (in Instruction) Mnemonic() string {
	if in.Op >= opCount {
		return ""
	}
	return mnemonics[in.Op]
}

// Operands returns the formatted operand string of the instruction.
// Registers print in upper case as V0-VF while literals (#$) and
// addresses ($) use lower case hex. Indirect memory through I is (I).
func (in Instruction) Operands() string {
	switch in.Op {
	case OpCls, OpRts:
		return ""

	case OpJump, OpCall:
		return fmt.Sprintf("$%03x", in.Addr)

	case OpSkipEqLit, OpSkipNeLit, OpMviLit, OpAdiLit, OpRand:
		return fmt.Sprintf("V%X, #$%02x", in.X, in.Lit)

	case OpSkipEq, OpSkipNe, OpMov, OpOr, OpAnd, OpXor, OpAdd, OpSub, OpSubb:
		return fmt.Sprintf("V%X, V%X", in.X, in.Y)

	case OpShr, OpShl, OpSkipKey, OpSkipNoKey, OpGetKey, OpSpriteChar, OpMovBcd:
		return fmt.Sprintf("V%X", in.X)

	case OpGetDelay:
		return fmt.Sprintf("V%X, DELAY", in.X)
	case OpDelay:
		return fmt.Sprintf("DELAY, V%X", in.X)
	case OpSound:
		return fmt.Sprintf("SOUND, V%X", in.X)
	case OpAddI:
		return fmt.Sprintf("I, V%X", in.X)
	case OpRegDump:
		return fmt.Sprintf("(I), V0-V%X", in.X)
	case OpRegLoad:
		return fmt.Sprintf("V0-V%X, (I)", in.X)
	case OpSetI:
		return fmt.Sprintf("I, #$%03x", in.Addr)
	case OpJumpPlusV0:
		return fmt.Sprintf("#$%03x(V0)", in.Addr)
	case OpDraw:
		return fmt.Sprintf("V%X, V%X, #$%x", in.X, in.Y, in.Lit)
	}
	return ""
}

// Disassemble returns the mnemonic, padded to a fixed column, and the operands.
func Disassemble(in Instruction) (string, string) {
	return fmt.Sprintf("%-*s ", mnemonicWidth, in.Mnemonic()), in.Operands()
}

func (in Instruction) String() string {
	ops := in.Operands()
	if ops == "" {
		return in.Mnemonic()
	}
	return in.Mnemonic() + " " + ops
}

// Line is one row of a disassembly listing.
type Line struct {
	Address  uint16
	Hi, Lo   byte
	Mnemonic string
	Operands string
	Valid    bool // the word decoded to an instruction
	Current  bool // the address equals the program counter
	Blank    bool // the word is 0x0000, typically unused memory
}

func (l Line) String() string {
	marker := " "
	if l.Current {
		marker = ">"
	}
	return strings.TrimRight(fmt.Sprintf("%s%04x: %02x%02x %s%s",
		marker, l.Address, l.Hi, l.Lo, l.Mnemonic, l.Operands), " ")
}

// DisassembleRange lists the two-byte words of mem from start up to end
// (exclusive). A trailing odd byte is ignored. Words that do not decode
// produce a line with empty mnemonic and operands.
func DisassembleRange(mem []byte, start, end int, pc uint16) []Line {
	if end > len(mem) {
		end = len(mem)
	}
	if start < 0 {
		start = 0
	}

	var lines []Line
	for addr := start; addr+1 < end; addr += 2 {
		hi, lo := mem[addr], mem[addr+1]
		line := Line{
			Address: uint16(addr),
			Hi:      hi,
			Lo:      lo,
			Current: uint16(addr) == pc,
			Blank:   hi == 0 && lo == 0,
		}
		if in, err := Decode(hi, lo); err == nil {
			line.Mnemonic, line.Operands = Disassemble(in)
			line.Valid = true
		}
		lines = append(lines, line)
	}
	return lines
}
