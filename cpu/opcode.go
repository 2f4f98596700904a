package cpu

import (
	"fmt"
)

// Kind identifies one of the instructions of the base set.
type Kind int

const (
	OP_NOP      = Kind(iota) // nop
	OP_CLS                   // cls
	OP_RET                   // ret
	OP_SYS                   // sys
	OP_JP                    // jp
	OP_CALL                  // call
	OP_SE_BYTE               // se
	OP_SNE_BYTE              // sne
	OP_SE_REG                // se
	OP_LD_BYTE               // ld
	OP_ADD_BYTE              // add
	OP_LD_REG                // ld
	OP_OR                    // or
	OP_AND                   // and
	OP_XOR                   // xor
	OP_ADD_REG               // add
	OP_SUB                   // sub
	OP_SHR                   // shr
	OP_SUBN                  // subn
	OP_SHL                   // shl
	OP_SNE_REG               // sne
	OP_LD_I                  // ld
	OP_JP_V0                 // jp
	OP_RND                   // rnd
	OP_DRW                   // drw
	OP_SKP                   // skp
	OP_SKNP                  // sknp
	OP_LD_VX_DT              // ld
	OP_LD_VX_K               // ld
	OP_LD_DT_VX              // ld
	OP_LD_ST_VX              // ld
	OP_ADD_I                 // add
	OP_LD_F                  // ld
	OP_LD_B                  // ld
	OP_LD_MEM_VX             // ld
	OP_LD_VX_MEM             // ld
	OP_KIND_COUNT
)

// Layout describes which operand fields of the word a Kind uses.
type Layout int

const (
	LAYOUT_NONE = Layout(iota) // fixed word
	LAYOUT_NNN                 // ?NNN
	LAYOUT_XNN                 // ?XNN
	LAYOUT_XY                  // ?XY?
	LAYOUT_XYN                 // ?XYN
	LAYOUT_X                   // ?X??
)

type kindInfo struct {
	mnemonic string
	pattern  uint16
	layout   Layout
	format   string
}

var kindTable = [OP_KIND_COUNT]kindInfo{
	OP_NOP:       {"nop", 0x0000, LAYOUT_NONE, ""},
	OP_CLS:       {"cls", 0x00e0, LAYOUT_NONE, ""},
	OP_RET:       {"ret", 0x00ee, LAYOUT_NONE, ""},
	OP_SYS:       {"sys", 0x0000, LAYOUT_NNN, "0x%03[5]x"},
	OP_JP:        {"jp", 0x1000, LAYOUT_NNN, "0x%03[5]x"},
	OP_CALL:      {"call", 0x2000, LAYOUT_NNN, "0x%03[5]x"},
	OP_SE_BYTE:   {"se", 0x3000, LAYOUT_XNN, "v%[1]x, 0x%02[4]x"},
	OP_SNE_BYTE:  {"sne", 0x4000, LAYOUT_XNN, "v%[1]x, 0x%02[4]x"},
	OP_SE_REG:    {"se", 0x5000, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_LD_BYTE:   {"ld", 0x6000, LAYOUT_XNN, "v%[1]x, 0x%02[4]x"},
	OP_ADD_BYTE:  {"add", 0x7000, LAYOUT_XNN, "v%[1]x, 0x%02[4]x"},
	OP_LD_REG:    {"ld", 0x8000, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_OR:        {"or", 0x8001, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_AND:       {"and", 0x8002, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_XOR:       {"xor", 0x8003, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_ADD_REG:   {"add", 0x8004, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_SUB:       {"sub", 0x8005, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_SHR:       {"shr", 0x8006, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_SUBN:      {"subn", 0x8007, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_SHL:       {"shl", 0x800e, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_SNE_REG:   {"sne", 0x9000, LAYOUT_XY, "v%[1]x, v%[2]x"},
	OP_LD_I:      {"ld", 0xa000, LAYOUT_NNN, "i, 0x%03[5]x"},
	OP_JP_V0:     {"jp", 0xb000, LAYOUT_NNN, "v0, 0x%03[5]x"},
	OP_RND:       {"rnd", 0xc000, LAYOUT_XNN, "v%[1]x, 0x%02[4]x"},
	OP_DRW:       {"drw", 0xd000, LAYOUT_XYN, "v%[1]x, v%[2]x, %[3]d"},
	OP_SKP:       {"skp", 0xe09e, LAYOUT_X, "v%[1]x"},
	OP_SKNP:      {"sknp", 0xe0a1, LAYOUT_X, "v%[1]x"},
	OP_LD_VX_DT:  {"ld", 0xf007, LAYOUT_X, "v%[1]x, dt"},
	OP_LD_VX_K:   {"ld", 0xf00a, LAYOUT_X, "v%[1]x, k"},
	OP_LD_DT_VX:  {"ld", 0xf015, LAYOUT_X, "dt, v%[1]x"},
	OP_LD_ST_VX:  {"ld", 0xf018, LAYOUT_X, "st, v%[1]x"},
	OP_ADD_I:     {"add", 0xf01e, LAYOUT_X, "i, v%[1]x"},
	OP_LD_F:      {"ld", 0xf029, LAYOUT_X, "f, v%[1]x"},
	OP_LD_B:      {"ld", 0xf033, LAYOUT_X, "b, v%[1]x"},
	OP_LD_MEM_VX: {"ld", 0xf055, LAYOUT_X, "[i], v%[1]x"},
	OP_LD_VX_MEM: {"ld", 0xf065, LAYOUT_X, "v%[1]x, [i]"},
}

// String returns the mnemonic of the instruction kind.
func (kind Kind) String() string {
	if kind < 0 || kind >= OP_KIND_COUNT {
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
	return kindTable[kind].mnemonic
}

// Layout returns the operand layout of the instruction kind.
func (kind Kind) Layout() Layout {
	if kind < 0 || kind >= OP_KIND_COUNT {
		return LAYOUT_NONE
	}
	return kindTable[kind].layout
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Kind Kind
	Word uint16
	X    uint8  // bits 8-11
	Y    uint8  // bits 4-7
	N    uint8  // bits 0-3
	NN   uint8  // bits 0-7
	NNN  uint16 // bits 0-11
}

// Decode splits an instruction word into its fields and identifies it.
// Words without a defined meaning under the 8, E and F families decode
// as OP_NOP.
func Decode(word uint16) (in Instruction) {
	in = Instruction{
		Word: word,
		X:    uint8((word >> 8) & 0xf),
		Y:    uint8((word >> 4) & 0xf),
		N:    uint8(word & 0xf),
		NN:   uint8(word & 0xff),
		NNN:  word & 0xfff,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00e0:
			in.Kind = OP_CLS
		case 0x00ee:
			in.Kind = OP_RET
		default:
			in.Kind = OP_SYS
		}
	case 0x1:
		in.Kind = OP_JP
	case 0x2:
		in.Kind = OP_CALL
	case 0x3:
		in.Kind = OP_SE_BYTE
	case 0x4:
		in.Kind = OP_SNE_BYTE
	case 0x5:
		in.Kind = OP_SE_REG
	case 0x6:
		in.Kind = OP_LD_BYTE
	case 0x7:
		in.Kind = OP_ADD_BYTE
	case 0x8:
		switch in.N {
		case 0x0:
			in.Kind = OP_LD_REG
		case 0x1:
			in.Kind = OP_OR
		case 0x2:
			in.Kind = OP_AND
		case 0x3:
			in.Kind = OP_XOR
		case 0x4:
			in.Kind = OP_ADD_REG
		case 0x5:
			in.Kind = OP_SUB
		case 0x6:
			in.Kind = OP_SHR
		case 0x7:
			in.Kind = OP_SUBN
		case 0xe:
			in.Kind = OP_SHL
		default:
			in.Kind = OP_NOP
		}
	case 0x9:
		in.Kind = OP_SNE_REG
	case 0xa:
		in.Kind = OP_LD_I
	case 0xb:
		in.Kind = OP_JP_V0
	case 0xc:
		in.Kind = OP_RND
	case 0xd:
		in.Kind = OP_DRW
	case 0xe:
		switch in.NN {
		case 0x9e:
			in.Kind = OP_SKP
		case 0xa1:
			in.Kind = OP_SKNP
		default:
			in.Kind = OP_NOP
		}
	case 0xf:
		switch in.NN {
		case 0x07:
			in.Kind = OP_LD_VX_DT
		case 0x0a:
			in.Kind = OP_LD_VX_K
		case 0x15:
			in.Kind = OP_LD_DT_VX
		case 0x18:
			in.Kind = OP_LD_ST_VX
		case 0x1e:
			in.Kind = OP_ADD_I
		case 0x29:
			in.Kind = OP_LD_F
		case 0x33:
			in.Kind = OP_LD_B
		case 0x55:
			in.Kind = OP_LD_MEM_VX
		case 0x65:
			in.Kind = OP_LD_VX_MEM
		default:
			in.Kind = OP_NOP
		}
	}

	return
}

// Encode builds the instruction word from the kind and operand fields.
// Fields the kind's layout does not use are ignored.
// An unknown kind encodes as its raw Word.
func (in Instruction) Encode() (word uint16) {
	if in.Kind < 0 || in.Kind >= OP_KIND_COUNT {
		word = in.Word
		return
	}

	info := kindTable[in.Kind]
	word = info.pattern

	switch info.layout {
	case LAYOUT_NNN:
		word |= in.NNN & 0xfff
	case LAYOUT_XNN:
		word |= (uint16(in.X&0xf) << 8) | uint16(in.NN)
	case LAYOUT_XY:
		word |= (uint16(in.X&0xf) << 8) | (uint16(in.Y&0xf) << 4)
	case LAYOUT_XYN:
		word |= (uint16(in.X&0xf) << 8) | (uint16(in.Y&0xf) << 4) | uint16(in.N&0xf)
	case LAYOUT_X:
		word |= uint16(in.X&0xf) << 8
	}

	return
}

// String returns the assembly language representation of this instruction.
func (in Instruction) String() string {
	if in.Kind < 0 || in.Kind >= OP_KIND_COUNT {
		return fmt.Sprintf("0x%04x %v", in.Word, in.Kind)
	}

	info := kindTable[in.Kind]

	if in.Kind == OP_NOP {
		return fmt.Sprintf("0x%04x nop", in.Word)
	}
	if len(info.format) == 0 {
		return fmt.Sprintf("0x%04x %v", in.Word, info.mnemonic)
	}

	operands := fmt.Sprintf(info.format, in.X, in.Y, in.N, in.NN, in.NNN)
	return fmt.Sprintf("0x%04x %v %v", in.Word, info.mnemonic, operands)
}
