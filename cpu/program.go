package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Bytes     []byte
	LinkLabel string
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug returns the listing entry covering an address. The entry is nil if
// no assembled byte lives there.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// LineNo returns the source line of the code at an address, or 0 if unknown.
func (prog *Program) LineNo(addr uint16) int {
	dbg := prog.Debug(addr)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// End returns the address just past the highest assembled byte.
func (prog *Program) End() (end int) {
	end = PROGRAM_START
	for _, op := range prog.Opcodes {
		if op.Addr+len(op.Bytes) > end {
			end = op.Addr + len(op.Bytes)
		}
	}
	return
}

// Binary returns the program image to load at PROGRAM_START. Gaps left by
// .org are zero filled.
func (prog *Program) Binary() (bin []byte) {
	bin = make([]byte, prog.End()-PROGRAM_START)
	for addr, value := range prog.Codes() {
		bin[int(addr)-PROGRAM_START] = value
	}

	return
}

// Codes iterates over every assembled byte and its address.
func (prog *Program) Codes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, value byte) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Bytes {
				if !yield(uint16(op.Addr+n), value) {
					return
				}
			}
		}
	}
}
