package cpu

import (
	"errors"
	"log"
)

// address returns the memory address offset bytes past the index register.
func (m *Machine) address(offset int) uint16 {
	return (m.Index + uint16(offset)) & ADDRESS_MASK
}

// pressedKey returns the lowest numbered key that is held down.
func (m *Machine) pressedKey() (key uint8, ok bool) {
	for n, pressed := range m.Keypad {
		if pressed {
			return uint8(n), true
		}
	}
	return
}

// flag converts a condition to the value stored in vf.
func flag(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// Fetch reads the instruction word at pc, most significant byte first.
func (m *Machine) Fetch() (word uint16, err error) {
	if m.Pc > LAST_FETCH {
		err = errors.Join(ErrFatalTrap, ErrAddress(m.Pc))
		return
	}

	word = uint16(m.Memory[m.Pc])<<8 | uint16(m.Memory[m.Pc+1])
	return
}

// Step executes a single fetch-decode-execute cycle.
//
// While a key-wait is pending, Step only polls the keypad. When a key is
// found its number is stored, the wait ends, and pc moves past the waiting
// instruction; otherwise nothing changes.
//
// Once a fault is returned the machine stays halted, returning the same
// error, until Reset or LoadProgram.
func (m *Machine) Step() (err error) {
	if m.halted != nil {
		err = m.halted
		return
	}

	if m.waiting {
		key, ok := m.pressedKey()
		if !ok {
			return
		}
		if m.Verbose {
			log.Printf("%03x: key %X -> v%X", m.Pc, key, m.waitReg)
		}
		m.Register[m.waitReg] = key
		m.waiting = false
		m.Pc += 2
		return
	}

	word, err := m.Fetch()
	if err != nil {
		m.halted = err
		return
	}

	err = m.Execute(Decode(word))
	return
}

// Execute executes a single decoded instruction.
func (m *Machine) Execute(in Instruction) (err error) {
	if m.halted != nil {
		err = m.halted
		return
	}

	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode{Pc: m.Pc, Instruction: in}, err)
			m.halted = err
		}
	}()

	if m.Verbose {
		log.Printf("%03x: %v", m.Pc, in)
	}

	if in.X >= REGISTER_COUNT || in.Y >= REGISTER_COUNT {
		err = ErrInstructionInvalid
		return
	}

	next_pc := m.Pc + 2

	// Operands are read before the flag is written, and the flag is
	// written before the result, so when X is F the result wins.
	vx := &m.Register[in.X]
	vy := &m.Register[in.Y]
	vf := &m.Register[REG_FLAG]

	switch in.Kind {
	case OP_NOP:
		// pass
	case OP_CLS:
		clear(m.Display[:])
		m.drawPending = true
	case OP_RET:
		ret, ok := m.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		next_pc = ret
	case OP_SYS, OP_JP:
		next_pc = in.NNN
	case OP_CALL:
		if !m.Stack.Push(next_pc) {
			err = ErrStackOverflow
			return
		}
		next_pc = in.NNN
	case OP_SE_BYTE:
		if *vx == in.NN {
			next_pc += 2
		}
	case OP_SNE_BYTE:
		if *vx != in.NN {
			next_pc += 2
		}
	case OP_SE_REG:
		if *vx == *vy {
			next_pc += 2
		}
	case OP_LD_BYTE:
		*vx = in.NN
	case OP_ADD_BYTE:
		*vx += in.NN
	case OP_LD_REG:
		*vx = *vy
	case OP_OR:
		*vx |= *vy
	case OP_AND:
		*vx &= *vy
	case OP_XOR:
		*vx ^= *vy
	case OP_ADD_REG:
		x, y := *vx, *vy
		*vf = flag(uint16(x)+uint16(y) > 0xff)
		*vx = x + y
	case OP_SUB:
		x, y := *vx, *vy
		*vf = flag(x >= y)
		*vx = x - y
	case OP_SHR:
		x := *vx
		*vf = x & 1
		*vx = x >> 1
	case OP_SUBN:
		x, y := *vx, *vy
		*vf = flag(x <= y)
		*vx = y - x
	case OP_SHL:
		x := *vx
		*vf = (x >> 7) & 1
		*vx = x << 1
	case OP_SNE_REG:
		if *vx != *vy {
			next_pc += 2
		}
	case OP_LD_I:
		m.Index = in.NNN
	case OP_JP_V0:
		next_pc = in.NNN + uint16(m.Register[0])
	case OP_RND:
		*vx = uint8(m.rng.Intn(256)) & in.NN
	case OP_DRW:
		m.draw(*vx, *vy, in.N)
	case OP_SKP:
		if m.Keypad[*vx&0xf] {
			next_pc += 2
		}
	case OP_SKNP:
		if !m.Keypad[*vx&0xf] {
			next_pc += 2
		}
	case OP_LD_VX_DT:
		*vx = m.Delay
	case OP_LD_VX_K:
		// Re-polled by Step until a key arrives.
		m.waiting = true
		m.waitReg = in.X
		next_pc = m.Pc
	case OP_LD_DT_VX:
		m.Delay = *vx
	case OP_LD_ST_VX:
		m.Sound = *vx
	case OP_ADD_I:
		m.Index += uint16(*vx)
	case OP_LD_F:
		m.Index = uint16(*vx) * FONT_GLYPH_SIZE
	case OP_LD_B:
		value := *vx
		m.Memory[m.address(0)] = value / 100
		m.Memory[m.address(1)] = (value / 10) % 10
		m.Memory[m.address(2)] = value % 10
	case OP_LD_MEM_VX:
		for n := range int(in.X) + 1 {
			m.Memory[m.address(n)] = m.Register[n]
		}
	case OP_LD_VX_MEM:
		for n := range int(in.X) + 1 {
			m.Register[n] = m.Memory[m.address(n)]
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	m.Pc = next_pc
	m.Ticks++

	return
}

// draw XORs an 8 pixel wide sprite of height rows from memory at I onto
// the display, with its origin wrapped onto the screen and the sprite
// itself clipped at the right and bottom edges. vf is set if any lit
// pixel was turned off.
func (m *Machine) draw(x, y uint8, height uint8) {
	x0 := int(x) % DISPLAY_WIDTH
	y0 := int(y) % DISPLAY_HEIGHT

	collision := false
	for row := range int(height) {
		py := y0 + row
		if py >= DISPLAY_HEIGHT {
			break
		}
		sprite := m.Memory[m.address(row)]
		for col := range 8 {
			px := x0 + col
			if px >= DISPLAY_WIDTH {
				break
			}
			if sprite&(0x80>>col) == 0 {
				continue
			}
			pixel := &m.Display[px+py*DISPLAY_WIDTH]
			if *pixel {
				collision = true
			}
			*pixel = !*pixel
		}
	}

	m.Register[REG_FLAG] = flag(collision)
	m.drawPending = true
}
