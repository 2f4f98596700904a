package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzMachine(f *testing.F) {
	for family := range 0x10 {
		word := uint16(family) << 12
		f.Add(word, uint8(0), uint8(0), uint16(0))
		f.Add(word|0x0fff, uint8(0xff), uint8(0x01), uint16(0xfff))
	}
	f.Add(uint16(0x00ee), uint8(0), uint8(0), uint16(0))
	f.Add(uint16(0xf00a), uint8(0), uint8(0), uint16(0))

	f.Fuzz(func(t *testing.T, word uint16, vx uint8, vy uint8, index uint16) {
		assert := assert.New(t)

		m := NewSeededMachine(1)
		err := m.LoadProgram([]byte{byte(word >> 8), byte(word)})
		assert.NoError(err)

		in := Decode(word)
		m.Register[in.X] = vx
		m.Register[in.Y] = vy
		m.Index = index

		before := *m
		err = m.Step()

		if in.Kind == OP_RET {
			// The stack is always empty after a load.
			assert.ErrorIs(err, ErrStackUnderflow)
			assert.ErrorIs(err, ErrOpcode{})
			assert.Equal(before.Pc, m.Pc)
			return
		}
		assert.NoError(err)

		assert.True(m.Stack.Depth() <= STACK_LIMIT)

		// Only the timer loads move the timers.
		switch in.Kind {
		case OP_LD_DT_VX:
			assert.Equal(m.Register[in.X], m.Delay)
		case OP_LD_ST_VX:
			assert.Equal(m.Register[in.X], m.Sound)
		default:
			assert.Equal(before.Delay, m.Delay, "%v", in)
			assert.Equal(before.Sound, m.Sound, "%v", in)
		}

		switch in.Kind {
		case OP_LD_VX_K:
			assert.Equal(before.Pc, m.Pc)
			_, ok := m.Waiting()
			assert.True(ok)
		case OP_SYS, OP_JP, OP_CALL:
			assert.Equal(in.NNN, m.Pc)
		case OP_JP_V0:
			assert.Equal(in.NNN+uint16(m.Register[0]), m.Pc)
		case OP_SE_BYTE, OP_SNE_BYTE, OP_SE_REG, OP_SNE_REG, OP_SKP, OP_SKNP:
			assert.Contains([]uint16{0x202, 0x204}, m.Pc)
		default:
			assert.Equal(uint16(0x202), m.Pc, "%v", in)
		}

		assert.False(errors.Is(m.Halted(), ErrFatalTrap))
	})
}
