// Package input carries the per-frame input edges from the host to the
// VM. The state is a plain value pushed into the executor every frame, so
// no component ever reads process-wide input globals.
package input

// State holds one frame's input edges.
type State struct {
	Up     bool
	Down   bool
	Left   bool
	Right  bool
	Action bool
	Turbo  bool
}

// Source is anything that can report the current input state, typically
// the game window's keyboard poll.
type Source interface {
	State() State
}
