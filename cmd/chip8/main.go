// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"fmt"
	goio "io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ezrec/chip8vm/emulator"
	"github.com/ezrec/chip8vm/internal"
	"github.com/ezrec/chip8vm/io"
	"github.com/ezrec/chip8vm/translate"
)

func main() {
	config := parseArgs()

	if len(config.Language) != 0 {
		translate.SetLanguage(config.Language)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, config, os.Stdout)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// newEmulator builds an emulator from the configuration.
func newEmulator(config *Config) (emu *emulator.Emulator) {
	if config.Seed == 0 {
		emu = emulator.NewEmulator()
	} else {
		emu = emulator.NewSeededEmulator(config.Seed)
	}
	emu.Verbose = config.Verbose
	emu.CyclesPerFrame = config.Cycles
	emu.FrameLimit = config.Frames

	return
}

// load assembles or reads the program into the emulator.
func load(emu *emulator.Emulator, config *Config) (err error) {
	if len(config.Compile) != 0 {
		var inf *os.File
		inf, err = os.Open(config.Compile)
		if err != nil {
			return
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			err = errors.Wrapf(err, "%v", config.Compile)
			return
		}
		return
	}

	rom, err := io.OpenRom(os.DirFS(filepath.Dir(config.Rom)), filepath.Base(config.Rom))
	if err != nil {
		err = errors.Wrapf(err, "%v", config.Rom)
		return
	}

	err = emu.Load(rom)
	if err != nil {
		err = errors.Wrapf(err, "%v", config.Rom)
		return
	}

	return
}

// holdKeys presses every keypad key named in a string of hex digits.
func holdKeys(emu *emulator.Emulator, keys string) (err error) {
	for _, r := range keys {
		var key uint64
		key, err = strconv.ParseUint(string(r), 16, 8)
		if err != nil {
			err = errors.Wrapf(io.ErrKeyInvalid, "-keys %q", keys)
			return
		}
		err = emu.Keys.Press(uint8(key))
		if err != nil {
			return
		}
	}

	return
}

func run(ctx context.Context, config *Config, stdout goio.Writer) (err error) {
	emu := newEmulator(config)

	if config.Defines {
		for equ, value := range internal.Sorted2(emu.Defines()) {
			fmt.Fprintf(stdout, ".equ %v %v\n", equ, value)
		}
		return
	}

	err = load(emu, config)
	if err != nil {
		return
	}

	if len(config.Save) != 0 {
		if len(config.Compile) == 0 {
			err = errors.Errorf("-s requires -c")
			return
		}
		rom := &io.Rom{
			Name: filepath.Base(config.Save),
			Data: emu.Program.Binary(),
		}
		err = rom.Save(io.DirFS(filepath.Dir(config.Save)))
		if err != nil {
			err = errors.Wrapf(err, "%v", config.Save)
		}
		return
	}

	err = holdKeys(emu, config.Keys)
	if err != nil {
		return
	}

	output := stdout
	if config.Output != "-" {
		var ouf *os.File
		ouf, err = os.Create(config.Output)
		if err != nil {
			return
		}
		defer ouf.Close()
		output = ouf
	}

	screen := &io.Screen{Output: output}

	var present func(emu *emulator.Emulator) error
	if !config.Final {
		present = func(emu *emulator.Emulator) error {
			return screen.Render(emu.Machine)
		}
	}

	err = emu.Run(ctx, present)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		if config.Verbose {
			log.Printf("%v", emu.Machine)
		}
		return
	}

	if config.Final {
		err = screen.Render(emu.Machine)
	}

	return
}
