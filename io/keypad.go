package io

import (
	"fmt"
	"iter"
	"maps"
	"unicode"

	"github.com/ezrec/chip8vm/cpu"
)

// DefaultLayout maps the left hand block of a QWERTY keyboard onto the
// hexadecimal keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var DefaultLayout = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

var _keypad_defines = func() (defines map[string]string) {
	defines = make(map[string]string, cpu.KEY_COUNT)
	for key := range cpu.KEY_COUNT {
		defines[fmt.Sprintf("KEY_%X", key)] = fmt.Sprintf("0x%x", key)
	}
	return
}()

// Keypad is the host side state of the 16 key keypad.
type Keypad struct {
	State  [cpu.KEY_COUNT]bool
	Layout map[rune]uint8 // Host key to keypad key. If nil, DefaultLayout.
}

// Defines returns an iter of defines for the keypad.
func (kp *Keypad) Defines() iter.Seq2[string, string] {
	return maps.All(_keypad_defines)
}

func (kp *Keypad) layout() map[rune]uint8 {
	if kp.Layout == nil {
		return DefaultLayout
	}
	return kp.Layout
}

// Keys iterates over the host runes of the layout, and their keypad keys.
func (kp *Keypad) Keys() iter.Seq2[rune, uint8] {
	return maps.All(kp.layout())
}

func (kp *Keypad) set(key uint8, pressed bool) (err error) {
	if int(key) >= cpu.KEY_COUNT {
		err = ErrKeyInvalid
		return
	}
	kp.State[key] = pressed
	return
}

// Press a keypad key.
func (kp *Keypad) Press(key uint8) error {
	return kp.set(key, true)
}

// Release a keypad key.
func (kp *Keypad) Release(key uint8) error {
	return kp.set(key, false)
}

// PressRune presses the keypad key bound to a host rune, case-insensitively.
// ok is false if the rune is unbound, or bound past the last key.
func (kp *Keypad) PressRune(r rune) (ok bool) {
	key, ok := kp.layout()[unicode.ToLower(r)]
	if ok {
		ok = kp.set(key, true) == nil
	}
	return
}

// ReleaseRune releases the keypad key bound to a host rune.
func (kp *Keypad) ReleaseRune(r rune) (ok bool) {
	key, ok := kp.layout()[unicode.ToLower(r)]
	if ok {
		ok = kp.set(key, false) == nil
	}
	return
}

// Reset releases every key.
func (kp *Keypad) Reset() {
	clear(kp.State[:])
}

// Apply copies the keypad state into the machine.
func (kp *Keypad) Apply(m *cpu.Machine) {
	m.SetKeys(kp.State)
}
