package io

import (
	"errors"
	"io"
	"io/fs"
	"path"

	"github.com/ezrec/chip8vm/cpu"
)

// Rom is a program image, loaded at cpu.PROGRAM_START.
type Rom struct {
	Name string
	Data []byte
}

// ReadRom reads a program image. Images larger than the program area are
// rejected with cpu.ErrProgramTooLarge without reading the rest of the input.
func ReadRom(name string, input io.Reader) (rom *Rom, err error) {
	data, err := io.ReadAll(io.LimitReader(input, cpu.PROGRAM_LIMIT+1))
	if err != nil {
		return
	}

	if len(data) > cpu.PROGRAM_LIMIT {
		err = cpu.ErrProgramTooLarge
		return
	}

	rom = &Rom{
		Name: name,
		Data: data,
	}

	return
}

// OpenRom reads a program image from a file system.
func OpenRom(filesys fs.FS, name string) (rom *Rom, err error) {
	file, err := filesys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	rom, err = ReadRom(path.Base(name), file)
	return
}

// Load resets the machine and installs the image.
func (rom *Rom) Load(m *cpu.Machine) (err error) {
	err = m.LoadProgram(rom.Data)
	return
}

// Save writes the image to a file system, under the rom's name.
func (rom *Rom) Save(filesys CreateFS) (err error) {
	if len(rom.Name) == 0 {
		err = ErrRomName
		return
	}

	file, err := filesys.Create(rom.Name)
	if err != nil {
		return
	}

	_, err = file.Write(rom.Data)
	err = errors.Join(err, file.Close())

	return
}
