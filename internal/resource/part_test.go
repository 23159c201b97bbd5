package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartFromID(t *testing.T) {
	tests := []struct {
		id   uint16
		part GamePart
		ok   bool
	}{
		{0x3e80, PartOne, true},
		{0x3e81, PartTwo, true},
		{0x3e89, PartTen, true},
		{0x3e7f, PartNone, false},
		{0x3e8a, PartNone, false},
		{0x0000, PartNone, false},
	}
	for _, tt := range tests {
		part, ok := PartFromID(tt.id)
		assert.Equal(t, tt.ok, ok, "id %#x", tt.id)
		assert.Equal(t, tt.part, part, "id %#x", tt.id)
	}
}

func TestPartEntryIndices(t *testing.T) {
	assert.Equal(t, 0x14, PartOne.palette())
	assert.Equal(t, 0x15, PartOne.bytecode())
	assert.Equal(t, 0x16, PartOne.cinematic())

	// Nine and Ten share their entries.
	assert.Equal(t, PartNine.palette(), PartTen.palette())
	assert.Equal(t, PartNine.bytecode(), PartTen.bytecode())
	assert.Equal(t, PartNine.cinematic(), PartTen.cinematic())
}

func TestPartAltVideoSharedEntry(t *testing.T) {
	for _, p := range []GamePart{PartThree, PartFour, PartFive, PartSeven, PartEight} {
		idx, ok := p.altVideo()
		assert.True(t, ok)
		assert.Equal(t, 0x11, idx)
	}
	for _, p := range []GamePart{PartOne, PartTwo, PartSix, PartNine, PartTen} {
		_, ok := p.altVideo()
		assert.False(t, ok)
	}
}

func TestBankNames(t *testing.T) {
	assert.Equal(t, "BANK01", bankID(1).name())
	assert.Equal(t, "BANK0A", bankID(0xa).name())
	assert.Equal(t, "BANK0D", bankID(0xd).name())
}
