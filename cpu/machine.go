// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"
	"strings"
	"time"
)

// Memory map and hardware dimensions.
const (
	MEMORY_SIZE     = 0x1000 // Addressable memory.
	ADDRESS_MASK    = 0xfff  // Index register and jump target mask.
	PROGRAM_START   = 0x200  // Load address and initial pc.
	PROGRAM_LIMIT   = MEMORY_SIZE - PROGRAM_START
	LAST_FETCH      = MEMORY_SIZE - 2 // Highest pc with a full word in memory.
	FONT_BASE       = 0x000
	FONT_GLYPH_SIZE = 5

	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_SIZE   = DISPLAY_WIDTH * DISPLAY_HEIGHT

	REGISTER_COUNT = 16
	REG_FLAG       = 0xf // vf, the carry/borrow/collision flag.
	KEY_COUNT      = 16
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":     fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PROGRAM_START":   fmt.Sprintf("0x%x", PROGRAM_START),
	"PROGRAM_LIMIT":   fmt.Sprintf("0x%x", PROGRAM_LIMIT),
	"FONT_BASE":       fmt.Sprintf("0x%x", FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%d", FONT_GLYPH_SIZE),
	"DISPLAY_WIDTH":   fmt.Sprintf("%d", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT":  fmt.Sprintf("%d", DISPLAY_HEIGHT),
}

// Machine is the complete interpreter state.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Memory   [MEMORY_SIZE]byte     // Font, interpreter area and program.
	Register [REGISTER_COUNT]uint8 // v0-vf.
	Index    uint16                // I, used masked to 12 bits.
	Pc       uint16                // Program counter.
	Stack    Stack                 // Return addresses.
	Delay    uint8                 // Delay timer.
	Sound    uint8                 // Sound timer.
	Display  [DISPLAY_SIZE]bool    // Pixels, index = x + y*DISPLAY_WIDTH.
	Keypad   [KEY_COUNT]bool       // Key state, written by the host.

	Ticks int // Instructions executed since reset.

	drawPending bool
	waiting     bool
	waitReg     uint8
	halted      error
	rng         *rand.Rand
}

// NewMachine creates a reset machine whose random source is seeded from
// the clock.
func NewMachine() *Machine {
	return NewSeededMachine(time.Now().UnixNano())
}

// NewSeededMachine creates a reset machine with a reproducible random source.
func NewSeededMachine(seed int64) (m *Machine) {
	m = &Machine{
		rng: rand.New(rand.NewSource(seed)),
	}

	m.Reset()

	return
}

// Defines for the machine.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the machine state.
//   - Clears memory, registers, stack, timers, keypad and display.
//   - Installs the font at FONT_BASE.
//   - Sets pc to PROGRAM_START.
//   - Requests an initial redraw.
//
// The random source is kept.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("cpu: reset")
	}

	clear(m.Memory[:])
	clear(m.Register[:])
	clear(m.Display[:])
	clear(m.Keypad[:])
	m.Stack.Reset()
	m.Index = 0
	m.Delay = 0
	m.Sound = 0
	m.Ticks = 0
	m.Pc = PROGRAM_START

	copy(m.Memory[FONT_BASE:], Font[:])

	m.drawPending = true
	m.waiting = false
	m.waitReg = 0
	m.halted = nil
}

// LoadProgram resets the machine and copies a program image to
// PROGRAM_START. An image larger than PROGRAM_LIMIT is rejected and the
// machine is left untouched.
func (m *Machine) LoadProgram(program []byte) (err error) {
	if len(program) > PROGRAM_LIMIT {
		err = ErrProgramTooLarge
		return
	}

	m.Reset()
	copy(m.Memory[PROGRAM_START:], program)

	if m.Verbose {
		log.Printf("cpu: loaded %d bytes", len(program))
	}

	return
}

// TickTimers decrements the delay and sound timers. Hosts call this at a
// fixed 60Hz, independent of the instruction rate.
func (m *Machine) TickTimers() {
	if m.Delay > 0 {
		m.Delay--
	}
	if m.Sound > 0 {
		m.Sound--
	}
}

// DrawPending returns true if the display changed since the last
// ClearDrawPending.
func (m *Machine) DrawPending() bool {
	return m.drawPending
}

// ClearDrawPending acknowledges that the host has rendered the display.
func (m *Machine) ClearDrawPending() {
	m.drawPending = false
}

// Pixel returns the display state at (x, y). Out of range coordinates are
// never set.
func (m *Machine) Pixel(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}
	return m.Display[x+y*DISPLAY_WIDTH]
}

func (m *Machine) SoundTimer() uint8 {
	return m.Sound
}

func (m *Machine) DelayTimer() uint8 {
	return m.Delay
}

// SetKey sets the pressed state of a single key. Keys beyond 0xf are ignored.
func (m *Machine) SetKey(key uint8, pressed bool) {
	if int(key) >= KEY_COUNT {
		return
	}
	m.Keypad[key] = pressed
}

// SetKeys replaces the whole keypad state.
func (m *Machine) SetKeys(keys [KEY_COUNT]bool) {
	m.Keypad = keys
}

// Waiting returns the register awaiting a keypress, if any.
func (m *Machine) Waiting() (reg uint8, ok bool) {
	return m.waitReg, m.waiting
}

// Halted returns the fault that stopped the machine, or nil while it runs.
func (m *Machine) Halted() error {
	return m.halted
}

// String returns the current machine state as a string.
func (m *Machine) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   pc: %03X\n", m.Pc)
	fmt.Fprintf(&sb, "    i: %03X\n", m.Index)
	for row := 0; row < REGISTER_COUNT; row += 4 {
		for n := row; n < row+4; n++ {
			fmt.Fprintf(&sb, "   v%X: %02X", n, m.Register[n])
		}
		sb.WriteString("\n")
	}
	if ret, ok := m.Stack.Peek(); ok {
		fmt.Fprintf(&sb, "stack: %03X (%d)\n", ret, m.Stack.Depth())
	} else {
		sb.WriteString("stack: ---\n")
	}
	fmt.Fprintf(&sb, "   dt: %02X\n", m.Delay)
	fmt.Fprintf(&sb, "   st: %02X\n", m.Sound)
	if m.waiting {
		fmt.Fprintf(&sb, " wait: v%X\n", m.waitReg)
	}

	return sb.String()
}
