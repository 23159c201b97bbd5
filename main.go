package main

import (
	"github.com/faiface/pixel/pixelgl"

	"github.com/bradford-hamilton/outworld/cmd"
)

func main() {
	// pixelgl needs access to the main thread, so the whole CLI runs
	// inside its main-thread wrapper
	pixelgl.Run(cmd.Execute)
}
