package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramDebug(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"    cls",
		"",
		"    .byte 1 2 3",
		"    ret",
	)

	dbg := prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)
	assert.Equal([]string{".byte", "1", "2", "3"}, dbg.Words)

	assert.Equal(1, prog.LineNo(0x201))
	assert.Equal(4, prog.LineNo(0x205))
	assert.Equal(0, prog.LineNo(0x207))
	assert.Equal(0, prog.LineNo(0x100))

	dbg = prog.Debug(0x300)
	assert.Nil(dbg.Opcode)
}

func TestProgramCodes(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"    .byte 0x11 0x22",
		".org 0x300",
		"    .byte 0x33",
	)

	addrs := []uint16{}
	values := []byte{}
	for addr, value := range prog.Codes() {
		addrs = append(addrs, addr)
		values = append(values, value)
	}
	assert.Equal([]uint16{0x200, 0x201, 0x300}, addrs)
	assert.Equal([]byte{0x11, 0x22, 0x33}, values)

	count := 0
	for range prog.Codes() {
		count++
		break
	}
	assert.Equal(1, count)

	bin := prog.Binary()
	assert.Equal(0x101, len(bin))
	assert.Equal(byte(0x33), bin[0x100])
}

func TestProgramLoad(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"    ld v1, 0x21",
		"    add v1, v1",
		"halt: jp halt",
	)

	m := NewSeededMachine(1)
	assert.NoError(m.LoadProgram(prog.Binary()))
	for range 4 {
		assert.NoError(m.Step())
	}
	assert.Equal(uint8(0x42), m.Register[1])
	assert.Equal(uint16(0x204), m.Pc)
	assert.Equal(3, prog.LineNo(m.Pc))
}
