// Package engine wires the subsystems together: it drives the VM frame by
// frame, forwards yielded resource requests to the catalog, drains the
// video command queue into the sequencer at every blit, and swaps game
// parts between frames. All subsystem lifetimes nest under the Executor;
// the VM itself never touches the catalog.
package engine

import (
	"github.com/pkg/errors"

	"github.com/bradford-hamilton/outworld/internal/input"
	"github.com/bradford-hamilton/outworld/internal/resource"
	"github.com/bradford-hamilton/outworld/internal/video"
	"github.com/bradford-hamilton/outworld/internal/vm"
)

// Executor owns the VM, the video sequencer, and the resource catalog.
type Executor struct {
	vm    *vm.VM
	video *video.Sequencer
	res   *resource.Catalog
	input input.Source
	frame uint64
}

// New loads the catalog, prepares the starting part, and returns a ready
// Executor. Bypass skips the copy-protection part and starts at part Two.
func New(store resource.Store, gfx video.Gfx, in input.Source, bypass bool) (*Executor, error) {
	res, err := resource.Load(store)
	if err != nil {
		return nil, err
	}

	if bypass {
		res.PreparePart(resource.PartTwo)
	} else {
		res.PreparePart(resource.PartOne)
	}

	return &Executor{
		vm:    vm.New(bypass),
		video: video.NewSequencer(gfx),
		res:   res,
		input: in,
	}, nil
}

// Run executes frames until the VM yields a blit with a positive sleep
// budget, which it returns in milliseconds. Resource requests and part
// changes are serviced in between without surfacing to the caller.
func (e *Executor) Run() (int64, error) {
	for {
		code := e.res.Bytecode()
		if code == nil {
			return 0, errors.New("engine: bytecode for current part not loaded")
		}

		res, err := e.vm.ExecuteFrame(code, e.input.State())
		if err != nil {
			return 0, err
		}

		switch res.Yield {
		case vm.YieldBlit:
			for _, cmd := range e.vm.DrainCommands() {
				if err := e.video.Push(cmd, e.res); err != nil {
					return 0, err
				}
			}
			if res.SleepMs > 0 {
				return res.SleepMs, nil
			}

		case vm.YieldResource:
			e.res.LoadPartOrEntry(res.ResourceID)

		default:
			e.frame++
			if part, ok := e.res.RequestedPart(); ok {
				e.res.PreparePart(part)
				e.vm.InitPart()
			}
		}
	}
}

// Frames reports how many complete frames have run.
func (e *Executor) Frames() uint64 {
	return e.frame
}
