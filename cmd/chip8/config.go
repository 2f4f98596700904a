package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ezrec/chip8vm/emulator"
)

// Config defines program configuration.
type Config struct {
	Rom      string // Path to the program image to run.
	Compile  string // Path to an assembly source to assemble and run.
	Save     string // Save the assembled image here, do not execute.
	Output   string // Display output, '-' for stdout.
	Frames   int    // Frames to run. If zero, run until interrupted.
	Cycles   int    // Instructions per frame.
	Seed     int64  // Random source seed. If zero, seeded from the clock.
	Keys     string // Hexadecimal keypad keys held down for the whole run.
	Final    bool   // Only render the display after the last frame.
	Defines  bool   // List the assembler predefines and exit.
	Verbose  bool   // Log every executed instruction.
	Language string // Message language, as a BCP 47 tag.
}

// parseArgs parses command line arguments as applicable.
//
// If an error occurred, this exits the program with an appropriate message.
// When version information is requested, it is printed to stdout and the program ends cleanly.
func parseArgs() *Config {
	var c Config
	c.Output = "-"
	c.Cycles = emulator.CYCLES_PER_FRAME

	flag.Usage = func() {
		fmt.Printf("%s [options] [<rom file>]\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&c.Compile, "c", c.Compile, "Assembly source to assemble.")
	flag.StringVar(&c.Save, "s", c.Save, "Save the assembled image to this file, do not execute.")
	flag.StringVar(&c.Output, "o", c.Output, "Display output file.")
	flag.IntVar(&c.Frames, "frames", c.Frames, "Number of 1/60s frames to run; 0 runs until interrupted.")
	flag.IntVar(&c.Cycles, "cycles", c.Cycles, "Instructions executed per frame.")
	flag.Int64Var(&c.Seed, "seed", c.Seed, "Random number seed; 0 seeds from the clock.")
	flag.StringVar(&c.Keys, "keys", c.Keys, "Hexadecimal keypad keys held down, ie '5a'.")
	flag.BoolVar(&c.Final, "final", c.Final, "Only render the display after the last frame.")
	flag.BoolVar(&c.Defines, "defines", c.Defines, "List the assembler predefines.")
	flag.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose mode.")
	flag.StringVar(&c.Language, "lang", c.Language, "Message language, ie 'en-US'.")

	version := flag.Bool("version", false, "Display version information.")
	flag.Parse()

	if *version {
		fmt.Println(Version())
		os.Exit(0)
	}

	switch {
	case flag.NArg() == 1 && len(c.Compile) == 0:
		c.Rom = flag.Arg(0)
	case flag.NArg() == 0 && (len(c.Compile) != 0 || c.Defines):
	default:
		flag.Usage()
		os.Exit(1)
	}

	return &c
}
