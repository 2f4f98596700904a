// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the CHIP-8 instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr       int // Address of the next emitted byte.
	expansions int // Macro expansion counter, for '@' labels.
}

// Predefine defines a new equate or redefines an existing equate, applied
// at the start of every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber("~")
		return
	}

	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// argType is the class of an instruction operand.
type argType int

const (
	ARG_VALUE    = argType(iota) // number or label
	ARG_REG                      // v0-vf
	ARG_I                        // i
	ARG_I_MEMORY                 // [i]
	ARG_DT                       // dt
	ARG_ST                       // st
	ARG_KEY                      // k
	ARG_FONT                     // f
	ARG_BCD                      // b
)

var argMap = map[string]argType{
	"i":   ARG_I,
	"[i]": ARG_I_MEMORY,
	"dt":  ARG_DT,
	"st":  ARG_ST,
	"k":   ARG_KEY,
	"f":   ARG_FONT,
	"b":   ARG_BCD,
}

// operand is a parsed instruction argument.
type operand struct {
	Type  argType
	Reg   uint8
	Value int64
	Label string // Unresolved label, linked after the pass.
}

var regRegexp = regexp.MustCompile(`^[vV][0-9a-fA-F]$`)
var labelRegexp = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// operandOf classifies a single argument word.
func (asm *Assembler) operandOf(word string) (arg operand, err error) {
	if regRegexp.MatchString(word) {
		reg, _ := strconv.ParseUint(word[1:], 16, 8)
		arg = operand{Type: ARG_REG, Reg: uint8(reg)}
		return
	}

	special, ok := argMap[strings.ToLower(word)]
	if ok {
		arg = operand{Type: special}
		return
	}

	addr, ok := asm.Label[word]
	if ok {
		arg = operand{Type: ARG_VALUE, Value: int64(addr)}
		return
	}

	value, err := asm.valueOf(word)
	if err == nil {
		arg = operand{Type: ARG_VALUE, Value: value}
		return
	}

	if labelRegexp.MatchString(word) {
		err = nil
		arg = operand{Type: ARG_VALUE, Label: word}
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var charRegexp = regexp.MustCompile(`'\\?[^']'`)
var parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)

// parseLine parses a single line into words, resolving expressions,
// equates, labels and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRegexp.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	line = strings.ReplaceAll(line, ",", " ")
	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		prefix := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.addr = PROGRAM_START
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr > ADDRESS_MASK || len(op.Bytes) != 2 {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrValueRange
			return
		}
		op.Bytes[0] |= byte((addr >> 8) & 0xf)
		op.Bytes[1] |= byte(addr & 0xff)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// emit appends the bytes of one source line to the listing.
func (asm *Assembler) emit(lineno int, words []string, data []byte, label string) (err error) {
	if asm.addr+len(data) > MEMORY_SIZE {
		err = ErrValueRange
		return
	}

	opcode := Opcode{LineNo: lineno, Addr: asm.addr, Words: words, Bytes: data, LinkLabel: label}
	asm.Opcode = append(asm.Opcode, opcode)
	asm.addr += len(data)

	return
}

// valueIn checks that a value operand fits between lo and hi.
func valueIn(arg operand, lo, hi int64) (err error) {
	if arg.Type != ARG_VALUE {
		err = ErrOpcodeInvalid
		return
	}
	if len(arg.Label) != 0 {
		err = ErrLabelMissing(arg.Label)
		return
	}
	if arg.Value < lo || arg.Value > hi {
		err = ErrValueRange
		return
	}
	return
}

// mnemonicArgs is the number of operands each mnemonic accepts.
var mnemonicArgs = map[string][2]int{
	"cls":  {0, 0},
	"ret":  {0, 0},
	"sys":  {1, 1},
	"jp":   {1, 2},
	"call": {1, 1},
	"se":   {2, 2},
	"sne":  {2, 2},
	"ld":   {2, 2},
	"add":  {2, 2},
	"or":   {2, 2},
	"and":  {2, 2},
	"xor":  {2, 2},
	"sub":  {2, 2},
	"shr":  {1, 2},
	"subn": {2, 2},
	"shl":  {1, 2},
	"rnd":  {2, 2},
	"drw":  {3, 3},
	"skp":  {1, 1},
	"sknp": {1, 1},
}

// regRegKinds are the mnemonics that only take two registers.
var regRegKinds = map[string]Kind{
	"or":   OP_OR,
	"and":  OP_AND,
	"xor":  OP_XOR,
	"sub":  OP_SUB,
	"subn": OP_SUBN,
	"shr":  OP_SHR,
	"shl":  OP_SHL,
}

// parseData evaluates a .byte or .word directive.
func (asm *Assembler) parseData(words []string, size int) (data []byte, err error) {
	if len(words) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	hi := int64(0xff)
	lo := int64(-0x80)
	if size == 2 {
		hi = 0xffff
		lo = -0x8000
	}

	for _, word := range words {
		var arg operand
		arg, err = asm.operandOf(word)
		if err != nil {
			return
		}
		err = valueIn(arg, lo, hi)
		if err != nil {
			return
		}
		if size == 2 {
			data = append(data, byte(arg.Value>>8), byte(arg.Value))
		} else {
			data = append(data, byte(arg.Value))
		}
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words
	mnemonic := strings.ToLower(words[0])
	words = words[1:]

	switch mnemonic {
	case ".byte", ".word":
		size := 1
		if mnemonic == ".word" {
			size = 2
		}
		var data []byte
		data, err = asm.parseData(words, size)
		if err != nil {
			return
		}
		err = asm.emit(lineno, initial_words, data, "")
		return
	case ".org":
		if len(words) != 1 {
			err = ErrOpcodeValueMissing
			return
		}
		var arg operand
		arg, err = asm.operandOf(words[0])
		if err != nil {
			return
		}
		err = valueIn(arg, PROGRAM_START, MEMORY_SIZE)
		if err != nil {
			return
		}
		if int(arg.Value) < asm.addr {
			err = ErrOrgBackwards
			return
		}
		asm.addr = int(arg.Value)
		return
	}

	limits, ok := mnemonicArgs[mnemonic]
	if !ok {
		err = ErrInstructionInvalid
		return
	}
	if len(words) < limits[0] {
		err = ErrOpcodeValueMissing
		return
	}
	if len(words) > limits[1] {
		err = ErrOpcodeExtraArgs
		return
	}

	args := make([]operand, len(words))
	for n, word := range words {
		args[n], err = asm.operandOf(word)
		if err != nil {
			return
		}
	}

	var in Instruction
	var label string

	// Resolves an address operand, deferring unknown labels to the link.
	address := func(arg operand) (err error) {
		if arg.Type == ARG_VALUE && len(arg.Label) != 0 {
			label = arg.Label
			return
		}
		err = valueIn(arg, 0, ADDRESS_MASK)
		in.NNN = uint16(arg.Value)
		return
	}
	// Resolves a signed or unsigned byte operand.
	immediate := func(arg operand) (err error) {
		err = valueIn(arg, -0x80, 0xff)
		in.NN = uint8(arg.Value)
		return
	}
	isReg := func(args ...operand) bool {
		for _, arg := range args {
			if arg.Type != ARG_REG {
				return false
			}
		}
		return true
	}

	switch mnemonic {
	case "cls":
		in.Kind = OP_CLS
	case "ret":
		in.Kind = OP_RET
	case "sys":
		in.Kind = OP_SYS
		err = address(args[0])
	case "call":
		in.Kind = OP_CALL
		err = address(args[0])
	case "jp":
		if len(args) == 2 {
			if !isReg(args[0]) || args[0].Reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			in.Kind = OP_JP_V0
			err = address(args[1])
		} else {
			in.Kind = OP_JP
			err = address(args[0])
		}
	case "se", "sne":
		if !isReg(args[0]) {
			err = ErrRegisterInvalid
			return
		}
		in.X = args[0].Reg
		if isReg(args[1]) {
			in.Kind = OP_SE_REG
			if mnemonic == "sne" {
				in.Kind = OP_SNE_REG
			}
			in.Y = args[1].Reg
		} else {
			in.Kind = OP_SE_BYTE
			if mnemonic == "sne" {
				in.Kind = OP_SNE_BYTE
			}
			err = immediate(args[1])
		}
	case "ld":
		dst, src := args[0], args[1]
		switch {
		case isReg(dst, src):
			in.Kind = OP_LD_REG
			in.X, in.Y = dst.Reg, src.Reg
		case isReg(dst) && src.Type == ARG_DT:
			in.Kind = OP_LD_VX_DT
			in.X = dst.Reg
		case isReg(dst) && src.Type == ARG_KEY:
			in.Kind = OP_LD_VX_K
			in.X = dst.Reg
		case isReg(dst) && src.Type == ARG_I_MEMORY:
			in.Kind = OP_LD_VX_MEM
			in.X = dst.Reg
		case isReg(dst):
			in.Kind = OP_LD_BYTE
			in.X = dst.Reg
			err = immediate(src)
		case dst.Type == ARG_I:
			in.Kind = OP_LD_I
			err = address(src)
		case isReg(src):
			in.X = src.Reg
			switch dst.Type {
			case ARG_DT:
				in.Kind = OP_LD_DT_VX
			case ARG_ST:
				in.Kind = OP_LD_ST_VX
			case ARG_FONT:
				in.Kind = OP_LD_F
			case ARG_BCD:
				in.Kind = OP_LD_B
			case ARG_I_MEMORY:
				in.Kind = OP_LD_MEM_VX
			default:
				err = ErrOpcodeInvalid
			}
		default:
			err = ErrOpcodeInvalid
		}
	case "add":
		dst, src := args[0], args[1]
		switch {
		case isReg(dst, src):
			in.Kind = OP_ADD_REG
			in.X, in.Y = dst.Reg, src.Reg
		case isReg(dst):
			in.Kind = OP_ADD_BYTE
			in.X = dst.Reg
			err = immediate(src)
		case dst.Type == ARG_I && isReg(src):
			in.Kind = OP_ADD_I
			in.X = src.Reg
		default:
			err = ErrOpcodeInvalid
		}
	case "or", "and", "xor", "sub", "subn", "shr", "shl":
		if !isReg(args...) {
			err = ErrRegisterInvalid
			return
		}
		in.Kind = regRegKinds[mnemonic]
		in.X = args[0].Reg
		in.Y = args[0].Reg
		if len(args) > 1 {
			in.Y = args[1].Reg
		}
	case "rnd":
		if !isReg(args[0]) {
			err = ErrRegisterInvalid
			return
		}
		in.Kind = OP_RND
		in.X = args[0].Reg
		err = immediate(args[1])
	case "drw":
		if !isReg(args[0], args[1]) {
			err = ErrRegisterInvalid
			return
		}
		in.Kind = OP_DRW
		in.X, in.Y = args[0].Reg, args[1].Reg
		err = valueIn(args[2], 0, 0xf)
		in.N = uint8(args[2].Value)
	case "skp", "sknp":
		if !isReg(args[0]) {
			err = ErrRegisterInvalid
			return
		}
		in.Kind = OP_SKP
		if mnemonic == "sknp" {
			in.Kind = OP_SKNP
		}
		in.X = args[0].Reg
	}

	if err != nil {
		return
	}

	word := in.Encode()
	err = asm.emit(lineno, initial_words, []byte{byte(word >> 8), byte(word)}, label)

	return
}
