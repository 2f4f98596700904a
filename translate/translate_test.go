package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLanguage("en-US")
	assert.Equal("pc 0x0200", From("pc 0x%04x", 0x200))
	assert.Equal("stack full", From("stack full"))
}

func TestSetLanguage_Empty(t *testing.T) {
	assert := assert.New(t)

	SetLanguage()
	first := Language()

	SetLanguage("en-US")
	assert.Equal(first, Language())
	assert.Equal("line 3 bad", From("line %d %v", 3, "bad"))
}
