package pixel

import (
	"github.com/bradford-hamilton/outworld/internal/video"
)

const (
	screenW   = video.ScreenWidth
	screenH   = video.ScreenHeight
	pageBytes = screenW * screenH
)

// Compositor is a software rasterizer for the sequencer's draw commands.
// It keeps the four 320x200 indexed-color pages in memory, fills polygons
// scanline by scanline, and converts the blitted page to RGBA through the
// current palette. The RGBA frame goes to a present callback so the pure
// rasterization stays testable without a window.
type Compositor struct {
	pages   [4][]byte
	palette video.Palette
	target  video.Page
	present func(frame []byte)

	frame []byte
}

// NewCompositor returns a Compositor delivering finished frames to
// present. A nil present drops frames, which tests use.
func NewCompositor(present func(frame []byte)) *Compositor {
	c := &Compositor{
		present: present,
		frame:   make([]byte, pageBytes*4),
	}
	for i := range c.pages {
		c.pages[i] = make([]byte, pageBytes)
	}
	return c
}

// Page exposes a page's raw indexed pixels for inspection.
func (c *Compositor) Page(p video.Page) []byte {
	return c.pages[p]
}

// SelectPage makes p the target of subsequent polygon and string draws.
func (c *Compositor) SelectPage(p video.Page) {
	c.target = p
}

// FillPage clears a page to a color index.
func (c *Compositor) FillPage(p video.Page, color byte) {
	buf := c.pages[p]
	for i := range buf {
		buf[i] = color
	}
}

// CopyPage copies src onto dst, shifted down by scroll rows. Rows shifted
// off either edge are dropped; uncovered rows keep their old contents.
func (c *Compositor) CopyPage(src, dst video.Page, scroll int16) {
	if src == dst {
		return
	}
	s, d := c.pages[src], c.pages[dst]

	if scroll == 0 {
		copy(d, s)
		return
	}
	for y := 0; y < screenH; y++ {
		sy := y - int(scroll)
		if sy < 0 || sy >= screenH {
			continue
		}
		copy(d[y*screenW:(y+1)*screenW], s[sy*screenW:(sy+1)*screenW])
	}
}

// SetPalette swaps in the 16-color palette used by the next blits.
func (c *Compositor) SetPalette(p video.Palette) {
	c.palette = p
}

// DrawPolygon scanline-fills the polygon into the target page with its
// blend mode: solid writes the color index, mask ORs into the destination,
// copy samples page zero.
func (c *Compositor) DrawPolygon(poly video.Polygon) {
	pts := poly.Vertices()
	if len(pts) < 2 {
		return
	}

	minY, maxY := int(pts[0].Y), int(pts[0].Y)
	for _, p := range pts[1:] {
		if int(p.Y) < minY {
			minY = int(p.Y)
		}
		if int(p.Y) > maxY {
			maxY = int(p.Y)
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > screenH-1 {
		maxY = screenH - 1
	}

	buf := c.pages[c.target]
	bg := c.pages[video.PageZero]

	for y := minY; y <= maxY; y++ {
		left, right, hit := scanlineSpan(pts, y)
		if !hit {
			continue
		}
		if left < 0 {
			left = 0
		}
		if right > screenW-1 {
			right = screenW - 1
		}
		for x := left; x <= right; x++ {
			i := y*screenW + x
			switch poly.Blend.Mode {
			case video.BlendSolid:
				buf[i] = poly.Blend.Value
			case video.BlendMask:
				buf[i] |= poly.Blend.Value
			case video.BlendCopy:
				buf[i] = bg[i]
			}
		}
	}
}

// scanlineSpan intersects the polygon outline with row y and returns the
// horizontal span covered there. The decoded polygons are convex, so one
// span per row is enough.
func scanlineSpan(pts []video.Point, y int) (left, right int, hit bool) {
	left, right = screenW, -1

	extend := func(x int) {
		if x < left {
			left = x
		}
		if x > right {
			right = x
		}
		hit = true
	}

	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		y0, y1 := int(a.Y), int(b.Y)
		x0, x1 := int(a.X), int(b.X)

		if y0 == y1 {
			if y0 == y {
				extend(x0)
				extend(x1)
			}
			continue
		}
		if y0 > y1 {
			y0, y1 = y1, y0
			x0, x1 = x1, x0
		}
		if y < y0 || y > y1 {
			continue
		}
		extend(x0 + (x1-x0)*(y-y0)/(y1-y0))
	}
	return left, right, hit
}

// DrawString blits 8x8 glyphs into the target page. A newline drops one
// glyph row and returns to the starting column.
func (c *Compositor) DrawString(text string, color byte, x, y int16) {
	buf := c.pages[c.target]
	startX := x

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			y += 8
			x = startX
			continue
		}

		glyph := video.Glyph(ch)
		for gy := 0; gy < 8; gy++ {
			row := glyph[gy]
			py := int(y) + gy
			if py < 0 || py >= screenH {
				continue
			}
			for gx := 0; gx < 8; gx++ {
				if row&(0x80>>gx) == 0 {
					continue
				}
				px := int(x) + gx
				if px < 0 || px >= screenW {
					continue
				}
				buf[py*screenW+px] = color
			}
		}
		x += 8
	}
}

// Blit converts the page to RGBA through the palette and hands the frame
// to the present callback.
func (c *Compositor) Blit(p video.Page) {
	src := c.pages[p]
	for i, idx := range src {
		col := c.palette[idx&0x0f]
		c.frame[i*4] = col.R
		c.frame[i*4+1] = col.G
		c.frame[i*4+2] = col.B
		c.frame[i*4+3] = 0xff
	}
	if c.present != nil {
		c.present(c.frame)
	}
}
