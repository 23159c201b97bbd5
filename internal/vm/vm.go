// Package vm implements the bytecode interpreter: 64 cooperative threads
// over a shared variable file and call stack, stepped one frame at a time.
// A frame runs threads in ascending id order until each pauses, dies, or
// the whole frame yields — either a blit with a sleep budget or a
// resource-load request. Drawing never happens here; the VM only queues
// abstract video commands for the sequencer.
package vm

import (
	"log"

	"github.com/bradford-hamilton/outworld/internal/input"
	"github.com/bradford-hamilton/outworld/internal/video"
)

const numThreads = 64

// Thread pc sentinels.
const (
	pcIdle uint16 = 0xffff // thread not running
	pcKill uint16 = 0xfffe // kill at the next thread update
)

// ThreadData is one cooperative thread's scheduling state. Requested
// values are committed at the next frame boundary.
type ThreadData struct {
	pc             uint16
	requestedPC    uint16
	paused         bool
	requestedPause bool
}

// VM is the bytecode virtual machine.
type VM struct {
	vars          [256]int16
	threads       [numThreads]ThreadData
	currentThread uint8

	// The stack is shared across threads and reset whenever a thread is
	// entered fresh (not resumed mid-frame).
	stack    [256]uint16
	stackPtr int

	resumePending bool
	commands      []video.Command
	bypass        bool
}

// YieldKind says why ExecuteFrame returned.
type YieldKind uint8

const (
	// YieldNone means every thread ran to the end of its timeslice.
	YieldNone YieldKind = iota
	// YieldBlit is a frame boundary carrying a sleep budget.
	YieldBlit
	// YieldResource asks the host to load a resource or switch parts.
	YieldResource
)

// FrameResult is the outcome of one ExecuteFrame call.
type FrameResult struct {
	Yield      YieldKind
	SleepMs    int64
	ResourceID uint16
}

// New returns a VM with its fixed pre-set variables. With bypass set, the
// extra pre-sets steer the bytecode around its copy-protection screens.
func New(bypass bool) *VM {
	vm := &VM{bypass: bypass}

	vm.setVar(0x54, 0x81)
	vm.setVar(VarRandomSeed, 0x1234)

	if bypass {
		vm.setVar(0xbc, 0x10)
		vm.setVar(0xc6, 0x80)
		vm.setVar(0xf2, 4000)
		vm.setVar(0xdc, 33)
	}

	vm.InitPart()

	return vm
}

// InitPart resets all thread state for a fresh part: every thread idle,
// thread zero runnable at pc 0.
func (vm *VM) InitPart() {
	vm.setVar(0xe4, 0x14)

	for t := range vm.threads {
		vm.threads[t] = ThreadData{pc: pcIdle, requestedPC: pcIdle}
	}

	vm.currentThread = 0
	vm.threads[0].pc = 0
	vm.resumePending = false
}

// DrainCommands hands over the queued video commands and empties the
// queue.
func (vm *VM) DrainCommands() []video.Command {
	cmds := vm.commands
	vm.commands = nil
	return cmds
}

// ExecuteFrame runs one frame of bytecode. When the previous frame
// yielded, execution resumes inside the thread that yielded; otherwise
// requested thread state is committed first and the scan starts at thread
// zero.
func (vm *VM) ExecuteFrame(code []byte, in input.State) (FrameResult, error) {
	if !vm.resumePending {
		vm.updateThreads()
		vm.currentThread = 0
	}
	return vm.resumeFrame(code, in)
}

func (vm *VM) resumeFrame(code []byte, in input.State) (FrameResult, error) {
	vm.updateInput(in)

	for t := vm.currentThread; t < numThreads; t++ {
		vm.currentThread = t
		td := vm.curThread()

		if td.paused || td.pc == pcIdle {
			continue
		}

		if !vm.resumePending {
			vm.stackPtr = 0
		} else {
			vm.resumePending = false
		}

		res, err := vm.executeThread(code)
		if err != nil {
			return FrameResult{}, err
		}
		if res.Yield != YieldNone {
			vm.resumePending = true
			return res, nil
		}
	}

	return FrameResult{}, nil
}

// executeThread steps instructions until the thread yields the frame or
// ends its timeslice.
func (vm *VM) executeThread(code []byte) (FrameResult, error) {
	for {
		res, err := vm.step(code)
		if err != nil {
			return FrameResult{}, err
		}

		switch res.kind {
		case stepContinue:
		case stepNextThread:
			return FrameResult{}, nil
		case stepYieldBlit:
			return FrameResult{Yield: YieldBlit, SleepMs: res.sleepMs}, nil
		case stepYieldResource:
			return FrameResult{Yield: YieldResource, ResourceID: res.resourceID}, nil
		}
	}
}

// updateThreads commits each thread's requested pause and pc at the frame
// boundary. A requested pc of 0xFFFE kills the thread; every requested pc
// is cleared back to the no-change sentinel.
func (vm *VM) updateThreads() {
	for t := range vm.threads {
		td := &vm.threads[t]
		td.paused = td.requestedPause

		if td.requestedPC != pcIdle {
			if td.requestedPC == pcKill {
				td.pc = pcIdle
			} else {
				td.pc = td.requestedPC
			}
			td.requestedPC = pcIdle
		}
	}
}

// updateInput packs the frame's input edges into the hero variable slots.
// Down writes first so a simultaneous up wins the shared up/down slot, and
// action is latched, never cleared here.
func (vm *VM) updateInput(in input.State) {
	var leftRight, upDown, mask int16

	if in.Right {
		leftRight = 1
		mask |= 1
	}
	if in.Left {
		leftRight = -1
		mask |= 2
	}
	if in.Down {
		upDown = 1
		mask |= 4
	}

	vm.setVar(VarHeroPosUpDown, upDown)

	if in.Up {
		upDown = -1
		mask |= 8
		vm.setVar(VarHeroPosUpDown, -1)
	}

	vm.setVar(VarHeroPosMask, mask)

	if in.Action {
		mask |= 0x80
		vm.setVar(VarHeroAction, 1)
	}

	vm.setVar(VarHeroPosJumpDown, upDown)
	vm.setVar(VarHeroPosLeftRight, leftRight)
	vm.setVar(VarHeroActionPosMask, mask)
}

func (vm *VM) getVar(id byte) int16 {
	if id == VarMusicMarker {
		log.Println("vm: unimplemented: read music marker")
	}
	return vm.vars[id]
}

func (vm *VM) setVar(id byte, value int16) {
	vm.vars[id] = value
}

func (vm *VM) curThread() *ThreadData {
	return &vm.threads[vm.currentThread]
}

func (vm *VM) pushCommand(cmd video.Command) {
	vm.commands = append(vm.commands, cmd)
}
