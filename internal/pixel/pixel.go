// Package pixel owns the desktop presentation: a pixelgl window scaled up
// from the logical 320x200 screen, the software page compositor behind
// it, and keyboard polling for the per-frame input state.
package pixel

import (
	"fmt"
	"image/color"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"

	"github.com/bradford-hamilton/outworld/internal/input"
	"github.com/bradford-hamilton/outworld/internal/video"
)

// Window wraps a pixelgl window presenting finished RGBA frames.
type Window struct {
	*pixelgl.Window
	pic   *pixel.PictureData
	scale float64
}

// NewWindow opens the game window at the given integer scale factor.
func NewWindow(scale uint32) (*Window, error) {
	if scale == 0 {
		scale = 1
	}
	cfg := pixelgl.WindowConfig{
		Title:  "outworld",
		Bounds: pixel.R(0, 0, float64(video.ScreenWidth*scale), float64(video.ScreenHeight*scale)),
		VSync:  true,
	}
	w, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating new window: %v", err)
	}
	w.Clear(colornames.Black)

	return &Window{
		Window: w,
		pic:    pixel.MakePictureData(pixel.R(0, 0, video.ScreenWidth, video.ScreenHeight)),
		scale:  float64(scale),
	}, nil
}

// Present draws one finished 320x200 RGBA frame scaled to the window and
// pumps the event loop. PictureData rows run bottom-up, so the frame is
// flipped on the way in.
func (w *Window) Present(frame []byte) {
	for y := 0; y < video.ScreenHeight; y++ {
		row := (video.ScreenHeight - 1 - y) * video.ScreenWidth
		for x := 0; x < video.ScreenWidth; x++ {
			i := (y*video.ScreenWidth + x) * 4
			w.pic.Pix[row+x] = color.RGBA{R: frame[i], G: frame[i+1], B: frame[i+2], A: frame[i+3]}
		}
	}

	sprite := pixel.NewSprite(w.pic, w.pic.Bounds())
	w.Clear(colornames.Black)
	sprite.Draw(w.Window, pixel.IM.Scaled(pixel.ZV, w.scale).Moved(w.Bounds().Center()))
	w.Update()
}

// State polls the keyboard: arrows or WASD move, Space or Enter act,
// Shift runs the VM at turbo pace.
func (w *Window) State() input.State {
	return input.State{
		Up:     w.Pressed(pixelgl.KeyUp) || w.Pressed(pixelgl.KeyW),
		Down:   w.Pressed(pixelgl.KeyDown) || w.Pressed(pixelgl.KeyS),
		Left:   w.Pressed(pixelgl.KeyLeft) || w.Pressed(pixelgl.KeyA),
		Right:  w.Pressed(pixelgl.KeyRight) || w.Pressed(pixelgl.KeyD),
		Action: w.Pressed(pixelgl.KeySpace) || w.Pressed(pixelgl.KeyEnter),
		Turbo:  w.Pressed(pixelgl.KeyLeftShift) || w.Pressed(pixelgl.KeyRightShift),
	}
}
