package video

import (
	"github.com/pkg/errors"

	"github.com/bradford-hamilton/outworld/internal/mem"
)

// draw resolves a DrawCommand's polygon buffer and walks the blob at its
// offset. The zoom operand is a fixed-point scale with six fraction bits
// (0x40 is 1.0); only the integer part survives into the recursive walk.
func (s *Sequencer) draw(c DrawCommand, assets Assets) error {
	var buf []byte
	switch c.Polygon.Source {
	case SourceCinematic:
		buf = assets.Cinematic()
	case SourceAltVideo:
		buf = assets.AltVideo()
	}
	if buf == nil {
		return errors.Errorf("video: polygon buffer %d not loaded", c.Polygon.Source)
	}

	return s.drawTree(buf, c.Polygon.BufferOffset, 0xff, c.X, c.Y, c.Zoom/64)
}

// drawTree decodes one node of a polygon tree. A mode byte >= 0xC0 is a
// leaf polygon; mode & 0x3F == 2 is a hierarchical node whose children are
// offsets within the same buffer. Anything else is corrupt data.
func (s *Sequencer) drawTree(buf []byte, offset int, color byte, x, y, zoom int16) error {
	r := mem.NewReader(buf, offset)
	mode := r.U8()

	switch {
	case mode >= 0xc0:
		s.drawLeaf(r, mode, color, x, y, zoom)
		return nil
	case mode&0x3f == 2:
		return s.drawChildren(buf, r, x, y, zoom)
	default:
		return errors.Errorf("video: unexpected polygon mode %#02x", mode)
	}
}

func (s *Sequencer) drawLeaf(r *mem.Reader, mode, color byte, x, y, zoom int16) {
	xBound := int16(r.U8()) * zoom
	yBound := int16(r.U8()) * zoom
	numPoints := int(r.U8())

	xMin := x - xBound/2
	xMax := x + xBound/2
	yMin := y - yBound/2
	yMax := y + yBound/2

	// Cull polygons entirely outside the 320x200 screen.
	if xMin > 319 || xMax < 0 || yMin > 199 || yMax < 0 {
		return
	}

	if color&0x80 != 0 {
		color = mode & 0x3f
	}

	var blend Blend
	switch {
	case color < 0x10:
		blend = Blend{Mode: BlendSolid, Value: color}
	case color > 0x10:
		blend = Blend{Mode: BlendCopy}
	default:
		blend = Blend{Mode: BlendMask, Value: 0x8}
	}

	poly := Polygon{NumPoints: numPoints, Blend: blend}

	if xBound == 0 && yBound == 1 && numPoints == 4 {
		// A single pixel is encoded as this degenerate quad.
		poly.Points[0] = Point{x, y}
		poly.Points[1] = Point{x - 1, y}
		poly.Points[2] = Point{x - 1, y + 1}
		poly.Points[3] = Point{x, y + 1}
	} else {
		for n := 0; n < numPoints; n++ {
			px := int16(r.U8()) * zoom
			py := int16(r.U8()) * zoom

			// Zero-width vertical lines lean their bottom edge one pixel
			// left so the line still rasterizes.
			var xOff int16
			if xBound == 0 && numPoints == 4 && n >= 2 {
				xOff = 1
			}

			poly.Points[n] = Point{px + xMin - xOff, py + yMin}
		}
	}

	s.gfx.DrawPolygon(poly)
}

func (s *Sequencer) drawChildren(buf []byte, r *mem.Reader, x, y, zoom int16) error {
	x -= int16(r.U8()) * zoom
	y -= int16(r.U8()) * zoom

	numChildren := int(r.U8())
	for n := 0; n <= numChildren; n++ {
		offset := r.U16()

		childX := x + int16(r.U8())*zoom
		childY := y + int16(r.U8())*zoom

		color := byte(0xff)
		if offset&0x8000 != 0 {
			color = r.U8()
			_ = r.U8() // padding
		}

		if err := s.drawTree(buf, int(offset&0x7fff)*2, color, childX, childY, zoom); err != nil {
			return err
		}
	}
	return nil
}
