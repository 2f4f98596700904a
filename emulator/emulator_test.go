package emulator

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8vm/cpu"
	"github.com/ezrec/chip8vm/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Machine)
	assert.NotNil(emu.Program)
	assert.Equal(CYCLES_PER_FRAME, emu.CyclesPerFrame)
	assert.Equal(uint16(cpu.PROGRAM_START), emu.Pc)
}

func doAssemble(t *testing.T, emu *Emulator, program ...string) {
	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	defines := maps.Collect(emu.Defines())

	assert.Equal("10", defines["CYCLES_PER_FRAME"])
	assert.Equal("60", defines["FRAME_RATE"])
	assert.Equal("0x200", defines["PROGRAM_START"])
	assert.Equal("0xa", defines["KEY_A"])

	doAssemble(t, emu,
		"ld v0, KEY_A",
		"ld v1, $(DISPLAY_WIDTH - 8)",
		"ld i, $(PROGRAM_START + 0x10)",
	)
	assert.Equal([]byte{0x60, 0x0a, 0x61, 0x38, 0xa2, 0x10}, emu.Program.Binary())
}

func TestEmulatorFrame(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu,
		"loop:",
		"    add v0, 1",
		"    jp loop",
	)

	assert.NoError(emu.Frame())
	assert.Equal(uint8(5), emu.Register[0])
	assert.Equal(10, emu.Ticks)
	assert.Equal(1, emu.Frames)

	emu.CyclesPerFrame = 4
	assert.NoError(emu.Frame())
	assert.Equal(uint8(7), emu.Register[0])
	assert.Equal(2, emu.LineNo())
}

func TestEmulatorTimers(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu,
		"    ld v0, 3",
		"    ld st, v0",
		"    ld dt, v0",
		"halt: jp halt",
	)

	assert.NoError(emu.Frame())
	assert.Equal(uint8(2), emu.SoundTimer())
	assert.Equal(uint8(2), emu.DelayTimer())
	assert.True(emu.Tone.On)

	assert.NoError(emu.Frame())
	assert.True(emu.Tone.On)
	assert.NoError(emu.Frame())
	assert.False(emu.Tone.On)
	assert.Equal(uint8(0), emu.DelayTimer())
	assert.Equal(1, emu.Tone.Beeps)
}

func TestEmulatorKeys(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu,
		"    ld v1, k",
		"    ld v2, 1",
		"halt: jp halt",
	)

	assert.NoError(emu.Frame())
	reg, ok := emu.Waiting()
	assert.True(ok)
	assert.Equal(uint8(1), reg)
	assert.Equal(1, emu.Ticks, "frame ends while waiting")

	assert.NoError(emu.Frame())
	_, ok = emu.Waiting()
	assert.True(ok)

	assert.True(emu.Keys.PressRune('w'))
	assert.NoError(emu.Frame())
	assert.Equal(uint8(5), emu.Register[1])
	assert.Equal(uint8(1), emu.Register[2])
	assert.True(emu.Keypad[5])
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu,
		"    cls",
		"    ret",
	)

	err := emu.Frame()
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal(uint16(0x202), rt.Addr)
	assert.Equal(2, rt.LineNo)
	assert.Contains(err.Error(), "line 2")

	// Halted until reset.
	err = emu.Frame()
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	assert.NoError(emu.Reset())
	assert.NoError(emu.Halted())
	assert.Equal(uint16(cpu.PROGRAM_START), emu.Pc)
	assert.Equal(0, emu.Frames)
}

func TestEmulatorAssembleError(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu, "ld v3, 7")

	err := emu.Assemble(strings.NewReader("ld v3, nowhere"))
	assert.ErrorIs(err, cpu.ErrLabelMissing("nowhere"))

	// Previous program survives.
	assert.Equal([]byte{0x63, 0x07}, emu.Program.Binary())
	assert.NoError(emu.Frame())
	assert.Equal(uint8(7), emu.Register[3])
}

func TestEmulatorLoad(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu, "cls")

	rom := &io.Rom{Name: "test", Data: []byte{0x6a, 0x42, 0x12, 0x02}}
	assert.NoError(emu.Load(rom))
	assert.Equal(0, len(emu.Program.Opcodes))

	assert.NoError(emu.Frame())
	assert.Equal(uint8(0x42), emu.Register[0xa])

	err := emu.Load(&io.Rom{Data: make([]byte, cpu.PROGRAM_LIMIT+1)})
	assert.ErrorIs(err, cpu.ErrProgramTooLarge)
	assert.Equal(uint8(0x42), emu.Register[0xa])

	// Unknown source line for a loaded image.
	assert.NoError(emu.Load(&io.Rom{Data: []byte{0x00, 0xee}}))
	err = emu.Frame()
	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal(0, rt.LineNo)
	assert.NotContains(err.Error(), "line")
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu,
		"    ld v0, 0",
		"    ld v1, 0",
		"    ld f, v0",
		"    drw v0, v1, 5",
		"halt: jp halt",
	)
	emu.FrameLimit = 3

	presents := 0
	err := emu.Run(context.Background(), func(emu *Emulator) error {
		presents++
		assert.True(emu.Pixel(0, 0))
		return nil
	})
	assert.NoError(err)
	assert.Equal(3, emu.Frames)
	assert.Equal(1, presents)
	assert.False(emu.DrawPending())
}

func TestEmulatorRun_Cancel(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu, "halt: jp halt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emu.Run(ctx, nil)
	assert.ErrorIs(err, context.Canceled)
}

func TestEmulatorRun_Errors(t *testing.T) {
	assert := assert.New(t)

	emu := NewSeededEmulator(1)
	doAssemble(t, emu, "cls", "halt: jp halt")

	errPresent := errors.New("present")
	err := emu.Run(context.Background(), func(emu *Emulator) error {
		return errPresent
	})
	assert.ErrorIs(err, errPresent)

	doAssemble(t, emu, "ret")
	err = emu.Run(context.Background(), nil)
	assert.ErrorIs(err, cpu.ErrStackUnderflow)
}
