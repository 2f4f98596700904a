package io

import (
	"errors"

	"github.com/ezrec/chip8vm/translate"
)

var f = translate.From

var (
	// Keypad errors
	ErrKeyInvalid = errors.New(f("key invalid"))

	// Rom errors
	ErrRomName = errors.New(f("rom name missing"))
)
