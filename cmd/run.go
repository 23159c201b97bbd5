package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/bradford-hamilton/outworld/internal/engine"
	"github.com/bradford-hamilton/outworld/internal/pixel"
	"github.com/bradford-hamilton/outworld/internal/resource"
)

var (
	dataPath string
	scale    uint32
	bypass   bool
)

// runCmd boots the engine against a game data directory and drives it
// until the window closes or the bytecode hits a fatal error.
var runCmd = &cobra.Command{
	Use:   "run --data-path path/to/gamedata",
	Short: "run the outworld engine",
	Args:  cobra.NoArgs,
	Run:   runOutworld,
}

func init() {
	runCmd.Flags().StringVarP(&dataPath, "data-path", "d", "", "directory holding MEMLIST.BIN and the BANK files")
	runCmd.Flags().Uint32VarP(&scale, "scale", "s", 1, "integer window scale factor")
	runCmd.Flags().BoolVar(&bypass, "bypass", true, "skip the copy-protection part")
	_ = runCmd.MarkFlagRequired("data-path")
}

func runOutworld(cmd *cobra.Command, args []string) {
	win, err := pixel.NewWindow(scale)
	if err != nil {
		log.Fatalf("error creating the game window: %v", err)
	}

	comp := pixel.NewCompositor(win.Present)

	ex, err := engine.New(resource.NewDirStore(dataPath), comp, win, bypass)
	if err != nil {
		log.Fatalf("error booting the engine: %v", err)
	}

	// The VM owns its pacing: every blit yields a sleep budget the host
	// honors before running the next frame. Turbo clamps the budget.
	last := time.Now()
	for !win.Closed() {
		sleepMs, err := ex.Run()
		if err != nil {
			log.Fatalf("fatal engine error: %v", err)
		}

		budget := time.Duration(sleepMs) * time.Millisecond
		turbo := win.State().Turbo
		if turbo && budget > time.Millisecond {
			budget = time.Millisecond
		}

		elapsed := time.Since(last)
		if budget > elapsed {
			time.Sleep(budget - elapsed)
		} else if !turbo {
			log.Printf("slow frame: %dms %dms", elapsed.Milliseconds(), budget.Milliseconds())
		}
		last = time.Now()
	}
}
