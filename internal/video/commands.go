package video

// PolygonSource selects which loaded buffer a polygon blob lives in.
type PolygonSource uint8

const (
	SourceCinematic PolygonSource = iota
	SourceAltVideo
)

// PolygonRef addresses a polygon blob within a part's polygon buffer.
type PolygonRef struct {
	BufferOffset int
	Source       PolygonSource
}

// Command is one entry of the VM's video command queue, drained into the
// sequencer at every blit.
type Command interface {
	videoCommand()
}

// DrawCommand draws the polygon tree at a buffer offset.
type DrawCommand struct {
	Polygon PolygonRef
	X, Y    int16
	Zoom    int16
}

// PaletteCommand latches a new palette, applied on the next blit.
type PaletteCommand struct {
	PaletteID byte
}

// SelectPageCommand makes a page the target of subsequent draws.
type SelectPageCommand struct {
	PageID byte
}

// FillPageCommand clears a page to a color index.
type FillPageCommand struct {
	PageID byte
	Color  byte
}

// CopyPageCommand copies one page onto another, optionally scrolled.
type CopyPageCommand struct {
	SrcPageID byte
	DstPageID byte
	Scroll    int16
}

// DrawStringCommand draws a string-table entry.
type DrawStringCommand struct {
	StringID uint16
	X, Y     byte
	Color    byte
}

// BlitCommand presents a page; 0xFF swaps the working pages first.
type BlitCommand struct {
	PageID byte
}

func (DrawCommand) videoCommand()       {}
func (PaletteCommand) videoCommand()    {}
func (SelectPageCommand) videoCommand() {}
func (FillPageCommand) videoCommand()   {}
func (CopyPageCommand) videoCommand()   {}
func (DrawStringCommand) videoCommand() {}
func (BlitCommand) videoCommand()       {}
