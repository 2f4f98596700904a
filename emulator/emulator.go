// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	goio "io"
	"iter"
	"log"
	"maps"
	"time"

	"github.com/ezrec/chip8vm/cpu"
	"github.com/ezrec/chip8vm/internal"
	"github.com/ezrec/chip8vm/io"
)

const (
	FRAME_RATE       = 60 // Timer and display refresh rate, in Hz.
	CYCLES_PER_FRAME = 10 // Default instructions per frame.
)

var _emulator_defines = map[string]string{
	"FRAME_RATE":       fmt.Sprintf("%v", FRAME_RATE),
	"CYCLES_PER_FRAME": fmt.Sprintf("%v", CYCLES_PER_FRAME),
}

// Emulator state. Machine + program listing + host keypad and beeper.
type Emulator struct {
	Verbose      bool         // If set, enables verbose logging.
	*cpu.Machine              // Reference to the machine.
	Program      *cpu.Program // Listing of the loaded program, if assembled.

	Keys io.Keypad // Host keypad, applied at the start of each frame.
	Tone io.Tone   // Beeper, updated at the end of each frame.

	CyclesPerFrame int // Instructions executed per frame.
	FrameLimit     int // If non-zero, Run stops after this many frames.
	Frames         int // Frames run since the last load.

	image []byte
}

// NewEmulator creates a new emulator, with a clock seeded random source.
func NewEmulator() (emu *Emulator) {
	emu = newEmulator(cpu.NewMachine())
	return
}

// NewSeededEmulator creates a new emulator with a reproducible random source.
func NewSeededEmulator(seed int64) (emu *Emulator) {
	emu = newEmulator(cpu.NewSeededMachine(seed))
	return
}

func newEmulator(m *cpu.Machine) (emu *Emulator) {
	emu = &Emulator{
		Machine:        m,
		Program:        &cpu.Program{},
		CyclesPerFrame: CYCLES_PER_FRAME,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Machine.Defines(),
		emu.Keys.Defines(),
	)
}

// Assemble a program, with all of the defines predefined, and load it.
// On failure the machine is left untouched.
func (emu *Emulator) Assemble(input goio.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	err = emu.load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Load a program image. Its listing is unknown.
func (emu *Emulator) Load(rom *io.Rom) (err error) {
	err = emu.load(rom.Data)
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}

	return
}

func (emu *Emulator) load(image []byte) (err error) {
	emu.Machine.Verbose = emu.Verbose

	err = emu.Machine.LoadProgram(image)
	if err != nil {
		return
	}

	emu.image = image
	emu.Keys.Reset()
	emu.Tone = io.Tone{}
	emu.Frames = 0

	return
}

// Reset the emulator, reloading the current program.
func (emu *Emulator) Reset() (err error) {
	err = emu.load(emu.image)
	return
}

// LineNo returns the source line of the instruction at pc, or 0 if unknown.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Machine.Pc)
}

// Frame runs one 1/60th of a second of machine time: applies the keypad,
// executes CyclesPerFrame instructions, then ticks the timers once.
// Execution stops early while the machine waits for a key.
func (emu *Emulator) Frame() (err error) {
	m := emu.Machine
	m.Verbose = emu.Verbose

	emu.Keys.Apply(m)

	for range emu.CyclesPerFrame {
		addr := m.Pc
		err = m.Step()
		if err != nil {
			err = &ErrRuntime{Addr: addr, LineNo: emu.Program.LineNo(addr), Err: err}
			return
		}
		if _, waiting := m.Waiting(); waiting {
			break
		}
	}

	m.TickTimers()

	on, changed := emu.Tone.Update(m.SoundTimer())
	if changed && emu.Verbose {
		log.Printf("emulator: tone %v", on)
	}

	emu.Frames++

	return
}

// Run frames at FRAME_RATE until the context is done, FrameLimit is
// reached, or an error occurs. After a frame that changed the display,
// present is called and the draw flag cleared.
func (emu *Emulator) Run(ctx context.Context, present func(emu *Emulator) error) (err error) {
	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	for emu.FrameLimit == 0 || emu.Frames < emu.FrameLimit {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}

		err = emu.Frame()
		if err != nil {
			return
		}

		if emu.Machine.DrawPending() {
			if present != nil {
				err = present(emu)
				if err != nil {
					return
				}
			}
			emu.Machine.ClearDrawPending()
		}
	}

	return
}
