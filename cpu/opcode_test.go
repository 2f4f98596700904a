package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word uint16
		kind Kind
		text string
	}){
		{0x00e0, OP_CLS, "0x00e0 cls"},
		{0x00ee, OP_RET, "0x00ee ret"},
		{0x0123, OP_SYS, "0x0123 sys 0x123"},
		{0x1234, OP_JP, "0x1234 jp 0x234"},
		{0x2345, OP_CALL, "0x2345 call 0x345"},
		{0x3a42, OP_SE_BYTE, "0x3a42 se va, 0x42"},
		{0x4a42, OP_SNE_BYTE, "0x4a42 sne va, 0x42"},
		{0x5ab0, OP_SE_REG, "0x5ab0 se va, vb"},
		{0x5ab7, OP_SE_REG, "0x5ab7 se va, vb"},
		{0x6a42, OP_LD_BYTE, "0x6a42 ld va, 0x42"},
		{0x7a42, OP_ADD_BYTE, "0x7a42 add va, 0x42"},
		{0x8ab0, OP_LD_REG, "0x8ab0 ld va, vb"},
		{0x8ab1, OP_OR, "0x8ab1 or va, vb"},
		{0x8ab2, OP_AND, "0x8ab2 and va, vb"},
		{0x8ab3, OP_XOR, "0x8ab3 xor va, vb"},
		{0x8ab4, OP_ADD_REG, "0x8ab4 add va, vb"},
		{0x8ab5, OP_SUB, "0x8ab5 sub va, vb"},
		{0x8ab6, OP_SHR, "0x8ab6 shr va, vb"},
		{0x8ab7, OP_SUBN, "0x8ab7 subn va, vb"},
		{0x8abe, OP_SHL, "0x8abe shl va, vb"},
		{0x8ab9, OP_NOP, "0x8ab9 nop"},
		{0x9ab0, OP_SNE_REG, "0x9ab0 sne va, vb"},
		{0xa123, OP_LD_I, "0xa123 ld i, 0x123"},
		{0xb123, OP_JP_V0, "0xb123 jp v0, 0x123"},
		{0xca0f, OP_RND, "0xca0f rnd va, 0x0f"},
		{0xdab5, OP_DRW, "0xdab5 drw va, vb, 5"},
		{0xea9e, OP_SKP, "0xea9e skp va"},
		{0xeaa1, OP_SKNP, "0xeaa1 sknp va"},
		{0xea00, OP_NOP, "0xea00 nop"},
		{0xfa07, OP_LD_VX_DT, "0xfa07 ld va, dt"},
		{0xfa0a, OP_LD_VX_K, "0xfa0a ld va, k"},
		{0xfa15, OP_LD_DT_VX, "0xfa15 ld dt, va"},
		{0xfa18, OP_LD_ST_VX, "0xfa18 ld st, va"},
		{0xfa1e, OP_ADD_I, "0xfa1e add i, va"},
		{0xfa29, OP_LD_F, "0xfa29 ld f, va"},
		{0xfa33, OP_LD_B, "0xfa33 ld b, va"},
		{0xfa55, OP_LD_MEM_VX, "0xfa55 ld [i], va"},
		{0xfa65, OP_LD_VX_MEM, "0xfa65 ld va, [i]"},
		{0xfa99, OP_NOP, "0xfa99 nop"},
	}

	for _, entry := range table {
		in := Decode(entry.word)
		assert.Equal(entry.kind, in.Kind, "%04x", entry.word)
		assert.Equal(entry.text, in.String())
	}
}

func TestDecode_Fields(t *testing.T) {
	assert := assert.New(t)

	in := Decode(0xd7c3)
	assert.Equal(uint16(0xd7c3), in.Word)
	assert.Equal(uint8(0x7), in.X)
	assert.Equal(uint8(0xc), in.Y)
	assert.Equal(uint8(0x3), in.N)
	assert.Equal(uint8(0xc3), in.NN)
	assert.Equal(uint16(0x7c3), in.NNN)
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	for kind := OP_CLS; kind < OP_KIND_COUNT; kind++ {
		in := Instruction{Kind: kind, X: 0xa, Y: 0xb, N: 0x5, NN: 0x42, NNN: 0x345}
		word := in.Encode()
		decoded := Decode(word)
		assert.Equal(kind, decoded.Kind, "%v: %04x", kind, word)

		switch kind.Layout() {
		case LAYOUT_NNN:
			assert.Equal(uint16(0x345), decoded.NNN)
		case LAYOUT_XNN:
			assert.Equal(uint8(0xa), decoded.X)
			assert.Equal(uint8(0x42), decoded.NN)
		case LAYOUT_XY:
			assert.Equal(uint8(0xa), decoded.X)
			assert.Equal(uint8(0xb), decoded.Y)
		case LAYOUT_XYN:
			assert.Equal(uint16(0xdab5), word)
		case LAYOUT_X:
			assert.Equal(uint8(0xa), decoded.X)
		}
	}
}

func TestKind_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("drw", OP_DRW.String())
	assert.Equal("Kind(99)", Kind(99).String())
	assert.Equal(LAYOUT_NONE, Kind(-1).Layout())
}

func TestInstruction_UnknownKind(t *testing.T) {
	assert := assert.New(t)

	in := Instruction{Kind: Kind(99), Word: 0x5123}
	assert.NotPanics(func() {
		assert.Equal(uint16(0x5123), in.Encode())
		assert.Equal("0x5123 Kind(99)", in.String())
	})

	in.Kind = Kind(-1)
	assert.NotPanics(func() {
		assert.Equal("0x5123 Kind(-1)", in.String())
	})
}
