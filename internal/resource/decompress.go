package resource

import "errors"

// Bank entries are packed with a byte-pair back-reference scheme and
// decoded in reverse: the packed stream is read from its tail and the
// output is written from its last byte down to its first. The packed
// region ends with three big-endian u32s: the number of bytes still to
// produce, a running crc, and the initial contents of the 32-bit bit
// register. Every register refill xors into the crc; a stream is valid
// iff the crc lands back on zero.

var (
	// ErrCrcCheckFailed reports a decoded entry whose crc register was
	// nonzero after the final refill.
	ErrCrcCheckFailed = errors.New("resource: crc check failed")

	// ErrInputBufferDrained reports a packed stream that ran out of input
	// words before producing all of its output.
	ErrInputBufferDrained = errors.New("resource: packed input buffer drained")
)

type decoder struct {
	crc      uint32
	check    uint32
	dataSize int32
	size     uint16

	output    []byte
	outCursor int

	input    []byte
	inCursor int
}

// decompress unpacks a bank entry into exactly size bytes.
func decompress(size int, packed []byte) ([]byte, error) {
	d := &decoder{
		output:    make([]byte, size),
		outCursor: size - 1,
		input:     packed,
		inCursor:  len(packed),
	}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.output, nil
}

func (d *decoder) decode() error {
	v, err := d.readRevU32()
	if err != nil {
		return err
	}
	d.dataSize = int32(v)

	if d.crc, err = d.readRevU32(); err != nil {
		return err
	}
	if d.check, err = d.readRevU32(); err != nil {
		return err
	}
	d.crc ^= d.check

	for {
		chunk, err := d.nextChunk()
		if err != nil {
			return err
		}
		if !chunk {
			d.size = 1
			if chunk, err = d.nextChunk(); err != nil {
				return err
			}
			if !chunk {
				err = d.copyLiteral(3, 0)
			} else {
				err = d.copyReference(8)
			}
		} else {
			c, err2 := d.getCode(2)
			if err2 != nil {
				return err2
			}
			switch {
			case c == 3:
				err = d.copyLiteral(8, 8)
			case c < 2:
				d.size = c + 2
				err = d.copyReference(byte(c) + 9)
			default:
				if d.size, err = d.getCode(8); err == nil {
					err = d.copyReference(12)
				}
			}
		}
		if err != nil {
			return err
		}

		if d.dataSize <= 0 {
			break
		}
	}

	if d.crc != 0 {
		return ErrCrcCheckFailed
	}
	return nil
}

// nextChunk draws one bit from the register, LSB first. An exhausted
// register reloads from the next reverse u32; the freshly shifted-out bit
// rotates back in as the new top bit.
func (d *decoder) nextChunk() (bool, error) {
	cf := d.rcr(false)
	if d.check == 0 {
		v, err := d.readRevU32()
		if err != nil {
			return false, err
		}
		d.check = v
		d.crc ^= d.check
		cf = d.rcr(true)
	}
	return cf, nil
}

func (d *decoder) getCode(numChunks byte) (uint16, error) {
	var c uint16
	for i := byte(0); i < numChunks; i++ {
		c <<= 1
		bit, err := d.nextChunk()
		if err != nil {
			return 0, err
		}
		if bit {
			c |= 1
		}
	}
	return c, nil
}

// copyLiteral writes getCode(numChunks)+addCount+1 raw bytes backward.
func (d *decoder) copyLiteral(numChunks, addCount byte) error {
	n, err := d.getCode(numChunks)
	if err != nil {
		return err
	}
	count := n + uint16(addCount) + 1
	d.dataSize -= int32(count)

	for i := uint16(0); i < count; i++ {
		v, err := d.getCode(8)
		if err != nil {
			return err
		}
		d.output[d.outCursor] = byte(v)
		d.outCursor--
	}
	return nil
}

// copyReference copies size+1 already-decoded bytes from getCode(numChunks)
// positions ahead of the cursor, one byte at a time so overlapping runs
// repeat correctly.
func (d *decoder) copyReference(numChunks byte) error {
	dist, err := d.getCode(numChunks)
	if err != nil {
		return err
	}
	count := d.size + 1
	d.dataSize -= int32(count)

	for i := uint16(0); i < count; i++ {
		d.output[d.outCursor] = d.output[d.outCursor+int(dist)]
		d.outCursor--
	}
	return nil
}

// rcr shifts the register right one bit, shifting cf in at the top, and
// returns the bit shifted out.
func (d *decoder) rcr(cf bool) bool {
	rcf := d.check&1 != 0
	d.check >>= 1
	if cf {
		d.check |= 0x80000000
	}
	return rcf
}

func (d *decoder) readRevU32() (uint32, error) {
	if d.inCursor < 4 {
		return 0, ErrInputBufferDrained
	}
	d.inCursor -= 4
	b := d.input[d.inCursor : d.inCursor+4]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
