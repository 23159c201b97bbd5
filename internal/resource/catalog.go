// Package resource loads and unpacks per-part game assets out of a banked
// archive: a MEMLIST.BIN index describing every entry, and thirteen opaque
// bank files addressed by offset and packed size.
package resource

import (
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/bradford-hamilton/outworld/internal/mem"
)

type entryState uint8

const (
	stateNotNeeded entryState = iota
	stateLoaded
	stateRequested
)

// Kind classifies a MEMLIST entry's payload.
type Kind uint8

const (
	KindSound Kind = iota
	KindMusic
	KindPolyAnim
	KindPalette
	KindBytecode
	KindPolyCinematic
	KindUnknown
)

func kindFrom(v byte) Kind {
	if v > byte(KindPolyCinematic) {
		return KindUnknown
	}
	return Kind(v)
}

type bankID byte

func (b bankID) valid() bool {
	return b >= 1 && b <= 0x0d
}

func (b bankID) name() string {
	return fmt.Sprintf("BANK%02X", byte(b))
}

// MemEntry is one record of the MEMLIST index plus its load state. When
// packedSize == size the payload is stored raw in its bank; otherwise it
// runs through the decompressor.
type MemEntry struct {
	state      entryState
	kind       Kind
	bankID     bankID
	bankOffset uint32
	packedSize uint16
	size       uint16
	data       []byte
}

// Kind returns the entry's payload classification.
func (e *MemEntry) Kind() Kind { return e.kind }

// memEntrySize is the on-disk record length in MEMLIST.BIN.
const memEntrySize = 20

var (
	// ErrInvalidMemEntryState reports a MEMLIST state byte outside {0,1,2}.
	ErrInvalidMemEntryState = errors.New("resource: invalid mem entry state")

	// ErrInvalidBankId reports a bank id outside 1..13.
	ErrInvalidBankId = errors.New("resource: invalid bank id")
)

// Catalog owns every resource byte buffer and tracks which game part they
// belong to. All mutation happens between VM frames.
type Catalog struct {
	store         Store
	entries       []MemEntry
	loadedPart    GamePart
	requestedPart GamePart
}

// Load reads and parses MEMLIST.BIN through the store. Payloads are not
// loaded; every entry starts as metadata only.
func Load(store Store) (*Catalog, error) {
	f, err := store.Open("MEMLIST.BIN")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read MEMLIST.BIN")
	}

	entries, err := parseMemList(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("resource: found %d entries", len(entries))

	return &Catalog{store: store, entries: entries}, nil
}

func parseMemList(raw []byte) ([]MemEntry, error) {
	r := mem.NewReader(raw, 0)
	var entries []MemEntry

	for {
		if r.Remaining() < 1 {
			return nil, errors.New("resource: MEMLIST.BIN missing terminator")
		}
		state := r.U8()
		if state == 0xff {
			return entries, nil
		}
		if r.Remaining() < memEntrySize-1 {
			return nil, errors.New("resource: truncated MEMLIST.BIN record")
		}
		if state > 2 {
			return nil, errors.Wrapf(ErrInvalidMemEntryState, "%d", state)
		}

		e := MemEntry{state: entryState(state)}
		e.kind = kindFrom(r.U8())
		_ = r.U16() // buf ptr
		_ = r.U16()
		_ = r.U8() // rank
		e.bankID = bankID(r.U8())
		e.bankOffset = r.U32()
		_ = r.U16()
		e.packedSize = r.U16()
		_ = r.U16()
		e.size = r.U16()

		if !e.bankID.valid() {
			return nil, errors.Wrapf(ErrInvalidBankId, "%d", e.bankID)
		}

		entries = append(entries, e)
	}
}

// loadEntry reads the entry's packed bytes out of its bank and unpacks
// them when needed.
func (c *Catalog) loadEntry(e *MemEntry) ([]byte, error) {
	if e.packedSize > e.size {
		return nil, errors.Errorf("resource: packed size %d exceeds size %d", e.packedSize, e.size)
	}

	f, err := c.store.Open(e.bankID.name())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(e.bankOffset), io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "seek %s to %d", e.bankID.name(), e.bankOffset)
	}
	buf := make([]byte, e.packedSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errors.Wrapf(err, "read %d bytes from %s", e.packedSize, e.bankID.name())
	}

	if e.packedSize == e.size {
		return buf, nil
	}
	return decompress(int(e.size), buf)
}

// PreparePart makes part the loaded part: every entry is reset, the part's
// palette, bytecode, cinematic, and alternate video entries are requested,
// and all requested entries are loaded. A part that is already loaded is
// left untouched.
func (c *Catalog) PreparePart(part GamePart) {
	if c.loadedPart == part {
		return
	}

	c.unload()
	c.requestPart(part)
	c.loadRequested()
	c.loadedPart = part
}

func (c *Catalog) unload() {
	for i := range c.entries {
		c.entries[i].state = stateNotNeeded
		c.entries[i].data = nil
	}
	c.loadedPart = PartNone
}

func (c *Catalog) requestPart(part GamePart) {
	c.requestEntry(part.palette())
	c.requestEntry(part.bytecode())
	c.requestEntry(part.cinematic())
	if idx, ok := part.altVideo(); ok {
		c.requestEntry(idx)
	}
}

func (c *Catalog) requestEntry(idx int) {
	if idx < 0 || idx >= len(c.entries) {
		return
	}
	c.entries[idx].state = stateRequested
}

// loadRequested loads every entry currently marked requested. A failure to
// load one entry is logged and the entry dropped back to not-needed; the
// bytecode will typically request it again.
func (c *Catalog) loadRequested() {
	for i := range c.entries {
		e := &c.entries[i]
		if e.state != stateRequested {
			continue
		}
		data, err := c.loadEntry(e)
		if err != nil {
			log.Printf("resource: unable to load entry %#x: %v", i, err)
			e.state = stateNotNeeded
			continue
		}
		e.state = stateLoaded
		e.data = data
	}
}

// LoadPartOrEntry services a LoadRes request from bytecode. An id beyond
// the entry table is a part-change request and is latched for the executor
// to observe between frames; anything else loads that single entry.
func (c *Catalog) LoadPartOrEntry(resourceID uint16) {
	if int(resourceID) > len(c.entries) {
		if part, ok := PartFromID(resourceID); ok {
			c.requestedPart = part
		}
		return
	}
	if int(resourceID) < len(c.entries) && c.entries[resourceID].state == stateNotNeeded {
		c.entries[resourceID].state = stateRequested
		c.loadRequested()
	}
}

// RequestedPart takes the latched part-change request, if any.
func (c *Catalog) RequestedPart() (GamePart, bool) {
	part := c.requestedPart
	c.requestedPart = PartNone
	return part, part != PartNone
}

// Palette returns the loaded part's palette buffer, or nil.
func (c *Catalog) Palette() []byte {
	return c.segment(c.loadedPart.palette())
}

// Bytecode returns the loaded part's bytecode buffer, or nil.
func (c *Catalog) Bytecode() []byte {
	return c.segment(c.loadedPart.bytecode())
}

// Cinematic returns the loaded part's cinematic polygon buffer, or nil.
func (c *Catalog) Cinematic() []byte {
	return c.segment(c.loadedPart.cinematic())
}

// AltVideo returns the loaded part's alternate video polygon buffer, or
// nil for parts without one.
func (c *Catalog) AltVideo() []byte {
	idx, ok := c.loadedPart.altVideo()
	if !ok {
		return nil
	}
	return c.segment(idx)
}

func (c *Catalog) segment(idx int) []byte {
	if c.loadedPart == PartNone || idx < 0 || idx >= len(c.entries) {
		return nil
	}
	e := &c.entries[idx]
	if e.state != stateLoaded {
		return nil
	}
	return e.data
}
