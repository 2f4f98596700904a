// Package cpu implements the interpreter core and assembler for the CHIP-8
// virtual machine.
//
// The Machine holds 4K of memory with the built-in hexadecimal font at
// 0x000, sixteen 8-bit registers (v0-vf, vf doubling as the carry, borrow
// and collision flag), the 12-bit index register I, a sixteen entry call
// stack, the delay and sound timers, a 64x32 monochrome display and the
// sixteen key hexadecimal keypad.
//
// The Machine never paces itself. A host calls Step as fast as the program
// should run and TickTimers at a fixed 60Hz, and must serialize all access
// to a Machine.
//
// The Assembler accepts the conventional mnemonic language for the base
// instruction set, with macros and compile-time $(...) expressions.
package cpu
