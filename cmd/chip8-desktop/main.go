// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/pkg/errors"

	"github.com/ezrec/chip8vm/cpu"
	"github.com/ezrec/chip8vm/emulator"
	"github.com/ezrec/chip8vm/io"
	"github.com/ezrec/chip8vm/translate"
)

// hostKeys binds the runes of the keypad layout to ebiten keys.
var hostKeys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

// Display colors, RGBA.
var (
	pixelOn  = [4]byte{0xe0, 0xf0, 0xe0, 0xff}
	pixelOff = [4]byte{0x10, 0x20, 0x10, 0xff}
)

// Game runs one emulator frame per ebiten tick.
type Game struct {
	emu    *emulator.Emulator
	pixels []byte
	image  *ebiten.Image
	err    error

	keysLogged bool
}

// pollKeys copies the host keyboard into the emulator keypad.
func (g *Game) pollKeys() {
	for r, key := range g.emu.Keys.Keys() {
		host, ok := hostKeys[r]
		if !ok {
			continue
		}
		var err error
		if ebiten.IsKeyPressed(host) {
			err = g.emu.Keys.Press(key)
		} else {
			err = g.emu.Keys.Release(key)
		}
		if err != nil && !g.keysLogged {
			log.Printf("key %q: %v", r, err)
			g.keysLogged = true
		}
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.err = g.emu.Reset()
	}
	if g.err != nil {
		return nil
	}

	g.pollKeys()

	g.err = g.emu.Frame()
	if g.err != nil {
		log.Printf("%v", g.err)
	}

	return nil
}

// render converts the display to RGBA pixels.
func (g *Game) render() {
	if g.pixels == nil {
		g.pixels = make([]byte, cpu.DISPLAY_SIZE*4)
	}

	for n, on := range g.emu.Display {
		color := pixelOff
		if on {
			color = pixelOn
		}
		copy(g.pixels[n*4:], color[:])
	}

	g.image.WritePixels(g.pixels)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT)
		g.render()
	}

	if g.emu.DrawPending() {
		g.render()
		g.emu.ClearDrawPending()
	}

	screen.DrawImage(g.image, nil)

	if g.err != nil {
		ebitenutil.DebugPrint(screen, translate.From("halted"))
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT
}

func load(emu *emulator.Emulator, path string) (err error) {
	if strings.HasSuffix(path, ".s") {
		var inf *os.File
		inf, err = os.Open(path)
		if err != nil {
			return
		}
		defer inf.Close()
		err = emu.Assemble(inf)
		return
	}

	rom, err := io.OpenRom(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return
	}
	err = emu.Load(rom)
	return
}

func main() {
	var scale int
	var cycles int
	var verbose bool
	var lang string

	flag.Usage = func() {
		fmt.Printf("%s [options] <rom or .s file>\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.IntVar(&scale, "scale", 10, "Pixel scale factor for the window.")
	flag.IntVar(&cycles, "cycles", emulator.CYCLES_PER_FRAME, "Instructions executed per frame.")
	flag.BoolVar(&verbose, "v", false, "Verbose mode.")
	flag.StringVar(&lang, "lang", "", "Message language, ie 'en-US'.")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if len(lang) != 0 {
		translate.SetLanguage(lang)
	}

	path := flag.Arg(0)

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.CyclesPerFrame = cycles

	err := load(emu, path)
	if err != nil {
		log.Fatalf("%v", errors.Wrapf(err, "%v", path))
	}

	ebiten.SetTPS(emulator.FRAME_RATE)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*scale, cpu.DISPLAY_HEIGHT*scale)
	ebiten.SetWindowTitle(fmt.Sprintf("CHIP-8 - %v", filepath.Base(path)))

	game := &Game{emu: emu}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
