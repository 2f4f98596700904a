package io

import (
	"io"
	"strings"

	"github.com/ezrec/chip8vm/cpu"
)

const (
	SCREEN_ON  = '#'
	SCREEN_OFF = '.'
)

// Screen renders the display buffer as text, one line per pixel row.
type Screen struct {
	Output io.Writer
	On     rune // Lit pixel. If zero, SCREEN_ON.
	Off    rune // Dark pixel. If zero, SCREEN_OFF.
}

// Render writes the whole display in a single write.
func (sc *Screen) Render(m *cpu.Machine) (err error) {
	on, off := sc.On, sc.Off
	if on == 0 {
		on = SCREEN_ON
	}
	if off == 0 {
		off = SCREEN_OFF
	}

	var sb strings.Builder
	for y := range cpu.DISPLAY_HEIGHT {
		for x := range cpu.DISPLAY_WIDTH {
			if m.Pixel(x, y) {
				sb.WriteRune(on)
			} else {
				sb.WriteRune(off)
			}
		}
		sb.WriteByte('\n')
	}

	_, err = io.WriteString(sc.Output, sb.String())
	return
}
