package engine

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/outworld/internal/input"
	"github.com/bradford-hamilton/outworld/internal/video"
)

// memStore serves named game data files out of memory.
type memStore map[string][]byte

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func (s memStore) Open(name string) (io.ReadSeekCloser, error) {
	data, ok := s[name]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return memFile{bytes.NewReader(data)}, nil
}

// buildGameData lays out a MEMLIST plus BANK01 with one uncompressed
// payload per entry index.
func buildGameData(payloads [][]byte) memStore {
	var memlist, bank []byte
	for _, p := range payloads {
		rec := make([]byte, 20)
		rec[1] = 4 // bytecode kind, irrelevant to loading
		rec[7] = 1 // bank id
		offset := uint32(len(bank))
		rec[8] = byte(offset >> 24)
		rec[9] = byte(offset >> 16)
		rec[10] = byte(offset >> 8)
		rec[11] = byte(offset)
		n := uint16(len(p))
		rec[14] = byte(n >> 8)
		rec[15] = byte(n)
		rec[18] = byte(n >> 8)
		rec[19] = byte(n)
		memlist = append(memlist, rec...)
		bank = append(bank, p...)
	}
	memlist = append(memlist, 0xff)
	return memStore{"MEMLIST.BIN": memlist, "BANK01": bank}
}

// countingGfx tallies rasterizer calls.
type countingGfx struct {
	blits    int
	fills    int
	lastFill byte
}

func (g *countingGfx) Blit(video.Page)           { g.blits++ }
func (g *countingGfx) DrawPolygon(video.Polygon) {}
func (g *countingGfx) FillPage(_ video.Page, color byte) {
	g.fills++
	g.lastFill = color
}
func (g *countingGfx) SelectPage(video.Page)                 {}
func (g *countingGfx) CopyPage(_, _ video.Page, _ int16)     {}
func (g *countingGfx) SetPalette(video.Palette)              {}
func (g *countingGfx) DrawString(string, byte, int16, int16) {}

// stillInput always reports no keys held.
type stillInput struct{}

func (stillInput) State() input.State { return input.State{} }

// gameData builds a store whose parts One and Two hold the given bytecode.
func gameData(partOneCode, partTwoCode []byte) memStore {
	payloads := make([][]byte, 0x1a)
	for i := range payloads {
		payloads[i] = []byte{byte(i), 0, 0, 0}
	}
	payloads[0x14] = make([]byte, 32) // part One palette
	payloads[0x15] = partOneCode
	payloads[0x17] = make([]byte, 32) // part Two palette
	payloads[0x18] = partTwoCode
	return buildGameData(payloads)
}

func TestRunReturnsBlitBudget(t *testing.T) {
	// Sleep 2 ticks, fill a page, blit.
	code := []byte{
		0x00, 0xff, 0x00, 0x02, // V[sleep] = 2
		0x0e, 0x00, 0x0b, // fill page 0 color 11
		0x10, 0xfe, // blit
	}
	gfx := &countingGfx{}

	ex, err := New(gameData(code, []byte{0x06}), gfx, stillInput{}, false)
	require.NoError(t, err)

	sleepMs, err := ex.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(40), sleepMs)
	assert.Equal(t, 1, gfx.blits, "commands drain into the sequencer at the blit")
	assert.Equal(t, 1, gfx.fills)
	assert.Equal(t, byte(0x0b), gfx.lastFill)
}

func TestRunSwitchesParts(t *testing.T) {
	// Part One requests part Two, then parks. Part Two blits.
	partOne := []byte{
		0x19, 0x3e, 0x81, // load resource: part Two id
		0x06, // pause; frame completes and the executor swaps parts
	}
	partTwo := []byte{
		0x00, 0xff, 0x00, 0x01,
		0x10, 0xfe,
	}
	gfx := &countingGfx{}

	ex, err := New(gameData(partOne, partTwo), gfx, stillInput{}, false)
	require.NoError(t, err)

	sleepMs, err := ex.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(20), sleepMs, "the blit comes from part Two's bytecode")
	assert.Equal(t, uint64(1), ex.Frames(), "one frame completed before the switch")
}

func TestRunSurfacesFatalBytecode(t *testing.T) {
	ex, err := New(gameData([]byte{0x1b}, []byte{0x06}), &countingGfx{}, stillInput{}, false)
	require.NoError(t, err)

	_, err = ex.Run()
	require.Error(t, err)
}

func TestNewBypassStartsAtPartTwo(t *testing.T) {
	partTwo := []byte{
		0x00, 0xff, 0x00, 0x03,
		0x10, 0xfe,
	}
	// Part One would hit an invalid opcode immediately.
	ex, err := New(gameData([]byte{0x1b}, partTwo), &countingGfx{}, stillInput{}, true)
	require.NoError(t, err)

	sleepMs, err := ex.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(60), sleepMs)
}
