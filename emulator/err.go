package emulator

import (
	"github.com/ezrec/chip8vm/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Addr   uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc 0x%03x %v", err.Addr, err.Err)
	}
	return f("pc 0x%03x line %d %v", err.Addr, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
