// Package video turns the VM's abstract command queue into rasterizer
// calls: it owns the four work-page aliases, latches palette changes until
// the next blit, decodes polygon trees, and resolves string ids against
// the fixed string table.
package video

import (
	"github.com/pkg/errors"
)

// Assets is the sequencer's read-only view of the loaded part's buffers.
type Assets interface {
	Palette() []byte
	Cinematic() []byte
	AltVideo() []byte
}

// Sequencer dispatches video commands to a Gfx backend.
type Sequencer struct {
	gfx              Gfx
	requestedPalette *Palette
	currentPage      Page
	workingPageA     Page
	workingPageB     Page
}

// NewSequencer returns a Sequencer in its initial page configuration:
// current page One, working pages One and Two.
func NewSequencer(gfx Gfx) *Sequencer {
	return &Sequencer{
		gfx:          gfx,
		currentPage:  PageOne,
		workingPageA: PageOne,
		workingPageB: PageTwo,
	}
}

// Push dispatches one command.
func (s *Sequencer) Push(cmd Command, assets Assets) error {
	switch c := cmd.(type) {
	case DrawCommand:
		return s.draw(c, assets)
	case PaletteCommand:
		return s.latchPalette(c.PaletteID, assets)
	case FillPageCommand:
		s.gfx.FillPage(s.getPage(c.PageID), c.Color)
	case SelectPageCommand:
		s.currentPage = s.getPage(c.PageID)
		s.gfx.SelectPage(s.currentPage)
	case CopyPageCommand:
		s.copyPage(c)
	case DrawStringCommand:
		s.drawString(c)
	case BlitCommand:
		s.blit(c.PageID)
	default:
		return errors.Errorf("video: unknown command %T", cmd)
	}
	return nil
}

// getPage maps a command page id to a concrete page: 0..3 literally, 0xFE
// and 0xFF to the working page aliases, anything else to page zero.
func (s *Sequencer) getPage(pageID byte) Page {
	switch pageID {
	case 0, 1, 2, 3:
		return Page(pageID)
	case 0xff:
		return s.workingPageB
	case 0xfe:
		return s.workingPageA
	default:
		return PageZero
	}
}

// latchPalette expands the 16 packed colors at paletteID*32 and holds them
// until the next blit. Each channel is a 4-bit value widened to 8 bits.
func (s *Sequencer) latchPalette(paletteID byte, assets Assets) error {
	buf := assets.Palette()
	offset := int(paletteID) * 32
	if buf == nil || len(buf) < offset+32 {
		return errors.Errorf("video: palette %d not loaded", paletteID)
	}

	var palette Palette
	for n := 0; n < 16; n++ {
		c0 := buf[offset+n*2]
		c1 := buf[offset+n*2+1]

		palette[n] = Color{
			R: (((c0 & 0x0f) << 2) | ((c0 & 0x0f) >> 2)) << 2,
			G: (((c1 & 0xf0) >> 2) | ((c1 & 0xf0) >> 6)) << 2,
			B: (((c1 & 0x0f) >> 2) | ((c1 & 0x0f) << 2)) << 2,
		}
	}

	s.requestedPalette = &palette
	return nil
}

func (s *Sequencer) copyPage(c CopyPageCommand) {
	if c.SrcPageID == c.DstPageID {
		return
	}

	var src Page
	scroll := int16(0)
	switch {
	case c.SrcPageID >= 0xfe:
		src = s.getPage(c.SrcPageID)
	case c.SrcPageID&0x80 == 0:
		src = s.getPage(c.SrcPageID & 0xbf)
	default:
		src = s.getPage(c.SrcPageID & 0x3)
		scroll = c.Scroll
	}

	s.gfx.CopyPage(src, s.getPage(c.DstPageID), scroll)
}

func (s *Sequencer) drawString(c DrawStringCommand) {
	text, ok := LookupString(c.StringID)
	if !ok {
		return
	}
	s.gfx.DrawString(text, c.Color, (int16(c.X)-1)*8, int16(c.Y))
}

// blit swaps or retargets the working pages, flushes a latched palette,
// and presents working page A. Page id 0xFF swaps A and B, 0xFE presents
// without touching them, anything else retargets A.
func (s *Sequencer) blit(pageID byte) {
	switch pageID {
	case 0xff:
		s.workingPageA, s.workingPageB = s.workingPageB, s.workingPageA
	case 0xfe:
	default:
		s.workingPageA = s.getPage(pageID)
	}

	if s.requestedPalette != nil {
		s.gfx.SetPalette(*s.requestedPalette)
		s.requestedPalette = nil
	}

	s.gfx.Blit(s.workingPageA)
}
