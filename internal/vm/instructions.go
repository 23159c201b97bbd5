package vm

import (
	"github.com/pkg/errors"

	"github.com/bradford-hamilton/outworld/internal/mem"
	"github.com/bradford-hamilton/outworld/internal/video"
)

// Fatal bytecode conditions. Any of these aborts the run.
var (
	ErrStackOverflow      = errors.New("vm: stack overflow")
	ErrStackUnderflow     = errors.New("vm: stack underflow")
	ErrInvalidOpcode      = errors.New("vm: invalid opcode")
	ErrInvalidCondition   = errors.New("vm: invalid jump condition")
	ErrInvalidThreadRange = errors.New("vm: invalid thread reset range")
)

type stepKind uint8

const (
	stepContinue stepKind = iota
	stepNextThread
	stepYieldBlit
	stepYieldResource
)

type stepResult struct {
	kind       stepKind
	sleepMs    int64
	resourceID uint16
}

var stepCont = stepResult{kind: stepContinue}

// syncPC commits the cursor past the decoded instruction. Jump effects
// overwrite the pc afterwards, so Call pushes the post-decode address.
func (vm *VM) syncPC(r *mem.Reader) {
	vm.curThread().pc = uint16(r.Pos())
}

// step decodes and executes a single instruction at the current thread's
// pc. Multi-byte operands are big-endian.
func (vm *VM) step(code []byte) (stepResult, error) {
	r := mem.NewReader(code, int(vm.curThread().pc))
	op := r.U8()

	if op&0x80 != 0 {
		vm.opDrawShort(r, op)
		return stepCont, nil
	}
	if op&0x40 != 0 {
		vm.opDrawExtended(r, op)
		return stepCont, nil
	}

	switch op {
	case 0x00: // MovConst
		dst, n := r.U8(), r.I16()
		vm.syncPC(r)
		vm.setVar(dst, n)

	case 0x01: // Mov
		dst, src := r.U8(), r.U8()
		vm.syncPC(r)
		vm.setVar(dst, vm.getVar(src))

	case 0x02: // Add
		dst, src := r.U8(), r.U8()
		vm.syncPC(r)
		vm.setVar(dst, vm.getVar(dst)+vm.getVar(src))

	case 0x03: // AddConst
		dst, n := r.U8(), r.I16()
		vm.syncPC(r)
		vm.setVar(dst, vm.getVar(dst)+n)

	case 0x04: // Call
		dest := r.U16()
		vm.syncPC(r)
		if vm.stackPtr == 0xff {
			return stepResult{}, ErrStackOverflow
		}
		vm.stack[vm.stackPtr] = vm.curThread().pc
		vm.stackPtr++
		vm.curThread().pc = dest

	case 0x05: // Ret
		vm.syncPC(r)
		if vm.stackPtr == 0 {
			return stepResult{}, ErrStackUnderflow
		}
		vm.stackPtr--
		vm.curThread().pc = vm.stack[vm.stackPtr]

	case 0x06: // TPause
		vm.syncPC(r)
		return stepResult{kind: stepNextThread}, nil

	case 0x07: // Jmp
		dest := r.U16()
		vm.syncPC(r)
		vm.curThread().pc = dest

	case 0x08: // SetVec
		tid, pc := r.U8(), r.U16()
		vm.syncPC(r)
		vm.threads[tid].requestedPC = pc

	case 0x09: // Jnz
		varID, dest := r.U8(), r.U16()
		vm.syncPC(r)
		res := vm.getVar(varID) - 1
		vm.setVar(varID, res)
		if res != 0 {
			vm.curThread().pc = dest
		}

	case 0x0a: // CondJmp
		return vm.opCondJmp(r)

	case 0x0b: // SetPalette
		pid := r.U16()
		vm.syncPC(r)
		vm.pushCommand(video.PaletteCommand{PaletteID: byte(pid >> 8)})

	case 0x0c: // TReset
		return vm.opThreadReset(r)

	case 0x0d: // SelectPage
		pid := r.U8()
		vm.syncPC(r)
		vm.pushCommand(video.SelectPageCommand{PageID: pid})

	case 0x0e: // FillPage
		pid, color := r.U8(), r.U8()
		vm.syncPC(r)
		vm.pushCommand(video.FillPageCommand{PageID: pid, Color: color})

	case 0x0f: // CopyPage
		src, dst := r.U8(), r.U8()
		vm.syncPC(r)
		vm.pushCommand(video.CopyPageCommand{SrcPageID: src, DstPageID: dst, Scroll: vm.getVar(VarScrollY)})

	case 0x10: // Blit
		pid := r.U8()
		vm.syncPC(r)
		vm.setVar(0xf7, 0)
		sleep := int64(vm.getVar(VarSleepTicks)) * 20
		vm.pushCommand(video.BlitCommand{PageID: pid})
		return stepResult{kind: stepYieldBlit, sleepMs: sleep}, nil

	case 0x11: // TKill
		vm.syncPC(r)
		vm.curThread().pc = pcIdle
		return stepResult{kind: stepNextThread}, nil

	case 0x12: // DrawString
		sid, x, y, color := r.U16(), r.U8(), r.U8(), r.U8()
		vm.syncPC(r)
		vm.pushCommand(video.DrawStringCommand{StringID: sid, X: x, Y: y, Color: color})

	case 0x13: // Sub
		dst, src := r.U8(), r.U8()
		vm.syncPC(r)
		vm.setVar(dst, vm.getVar(dst)-vm.getVar(src))

	case 0x14: // And
		dst, value := r.U8(), r.U16()
		vm.syncPC(r)
		vm.setVar(dst, int16(uint16(vm.getVar(dst))&value))

	case 0x15: // Or
		dst, value := r.U8(), r.U16()
		vm.syncPC(r)
		vm.setVar(dst, int16(uint16(vm.getVar(dst))|value))

	case 0x16: // Shl
		dst, value := r.U8(), r.U16()
		vm.syncPC(r)
		vm.setVar(dst, int16(uint16(vm.getVar(dst))<<value))

	case 0x17: // Shr
		dst, value := r.U8(), r.U16()
		vm.syncPC(r)
		vm.setVar(dst, int16(uint16(vm.getVar(dst))>>value))

	case 0x18: // PlaySound: audio is stubbed, operands are still consumed
		_, _, _, _ = r.U16(), r.U8(), r.U8(), r.U8()
		vm.syncPC(r)

	case 0x19: // LoadRes
		resID := r.U16()
		vm.syncPC(r)
		return stepResult{kind: stepYieldResource, resourceID: resID}, nil

	case 0x1a: // PlayMusic: stubbed like PlaySound
		_, _, _ = r.U16(), r.U16(), r.U8()
		vm.syncPC(r)

	default:
		return stepResult{}, errors.Wrapf(ErrInvalidOpcode, "%#02x", op)
	}

	return stepCont, nil
}

// opCondJmp decodes the conditional jump: the sub-op's top bits pick the
// operand form (variable ref, i16 literal, or u8 literal), its low bits
// the comparison.
func (vm *VM) opCondJmp(r *mem.Reader) (stepResult, error) {
	subOp := r.U8()
	varID := r.U8()

	var right int16
	switch subOp & 0xc0 {
	case 0x80, 0xc0:
		right = vm.getVar(r.U8())
	case 0x40:
		right = r.I16()
	default:
		right = int16(r.U8())
	}

	dest := r.U16()
	vm.syncPC(r)

	left := vm.getVar(varID)

	var take bool
	switch subOp & 0x7 {
	case 0:
		take = left == right
	case 1:
		take = left != right
	case 2:
		take = left > right
	case 3:
		take = left >= right
	case 4:
		take = left < right
	case 5:
		take = left <= right
	default:
		return stepResult{}, errors.Wrapf(ErrInvalidCondition, "%d", subOp&0x7)
	}

	if take {
		vm.curThread().pc = dest
	}
	return stepCont, nil
}

// opThreadReset pauses, resumes, or schedules the kill of a thread range.
// Kills land at the next frame boundary via the requested pc sentinel.
func (vm *VM) opThreadReset(r *mem.Reader) (stepResult, error) {
	start, end, mode := r.U8(), r.U8(), r.U8()
	vm.syncPC(r)

	if end >= numThreads {
		end &= numThreads - 1
	}
	if end < start {
		return stepResult{}, errors.Wrapf(ErrInvalidThreadRange, "%d..%d mode %d", start, end, mode)
	}

	switch {
	case mode == 2:
		for t := start; t <= end; t++ {
			vm.threads[t].requestedPC = pcKill
		}
	case mode < 2:
		for t := start; t <= end; t++ {
			vm.threads[t].requestedPause = mode == 1
		}
	}
	return stepCont, nil
}

// opDrawShort is the one-byte polygon form: the opcode byte itself is the
// high half of the cinematic buffer offset, coordinates are u8 literals,
// zoom is fixed. A y past the bottom of the screen leans the polygon
// right instead of clipping.
func (vm *VM) opDrawShort(r *mem.Reader, op byte) {
	offset := (uint16(op)<<8 | uint16(r.U8())) * 2

	x := int16(r.U8())
	y := int16(r.U8())
	if h := y - 199; h > 0 {
		y = 199
		x += h
	}
	vm.syncPC(r)

	vm.pushCommand(video.DrawCommand{
		Polygon: video.PolygonRef{BufferOffset: int(offset), Source: video.SourceCinematic},
		X:       x,
		Y:       y,
		Zoom:    0x40,
	})
}

// opDrawExtended is the two-byte polygon form: x, y, and zoom are each
// independently a variable ref or a literal, selected by opcode bits. The
// low two bits double as the buffer selector — 3 reads from the alternate
// video buffer with the default zoom.
func (vm *VM) opDrawExtended(r *mem.Reader, op byte) {
	offset := r.U16() * 2

	var x int16
	switch op & 0x30 {
	case 0x00:
		x = r.I16()
	case 0x10:
		x = vm.getVar(r.U8())
	case 0x20:
		x = int16(r.U8())
	case 0x30:
		x = int16(r.U8()) + 0x100
	}

	var y int16
	switch op & 0x0c {
	case 0x00:
		y = r.I16()
	case 0x04:
		y = vm.getVar(r.U8())
	default: // 0x08, 0x0c
		y = int16(r.U8())
	}

	zoom := int16(0x40)
	source := video.SourceCinematic
	switch op & 0x03 {
	case 0x01:
		zoom = vm.getVar(r.U8())
	case 0x02:
		zoom = int16(r.U8())
	case 0x03:
		source = video.SourceAltVideo
	}
	vm.syncPC(r)

	vm.pushCommand(video.DrawCommand{
		Polygon: video.PolygonRef{BufferOffset: int(offset), Source: source},
		X:       x,
		Y:       y,
		Zoom:    zoom,
	})
}
