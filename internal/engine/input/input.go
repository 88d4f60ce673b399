// Package input turns SDL2 events into a per-frame snapshot for the viewer.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/glsandbox/internal/engine/camera"
)

// Frame is everything that happened since the previous Poll.
type Frame struct {
	Quit bool

	// Resized is set when the drawable changed size.
	Resized       bool
	Width, Height int

	// Relative mouse motion and wheel steps.
	MouseDX, MouseDY float32
	Scroll           float32

	// Keys pressed this frame (edge triggered).
	ToggleWireframe bool
	ToggleCapture   bool
	ReloadShaders   bool
	Screenshot      bool
}

// Input tracks held keys between frames.
type Input struct {
	frame Frame
}

// New creates an input handler.
func New() *Input {
	return &Input{}
}

// Poll drains the SDL event queue and returns the frame snapshot.
func (i *Input) Poll() Frame {
	i.frame = Frame{}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.frame.Quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.frame.Resized = true
				i.frame.Width = int(e.Data1)
				i.frame.Height = int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			switch e.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				i.frame.Quit = true
			case sdl.SCANCODE_F1:
				i.frame.ToggleWireframe = true
			case sdl.SCANCODE_TAB:
				i.frame.ToggleCapture = true
			case sdl.SCANCODE_F5:
				i.frame.ReloadShaders = true
			case sdl.SCANCODE_F12:
				i.frame.Screenshot = true
			}

		case *sdl.MouseMotionEvent:
			i.frame.MouseDX += float32(e.XRel)
			i.frame.MouseDY += float32(e.YRel)

		case *sdl.MouseWheelEvent:
			i.frame.Scroll += float32(e.Y)
		}
	}

	return i.frame
}

// Keys reads the held movement keys: WASD, space up, left alt down, left
// shift sprint, arrow up/down for the texture blend.
func (i *Input) Keys() camera.KeyState {
	k := sdl.GetKeyboardState()
	held := func(sc sdl.Scancode) bool { return k[sc] != 0 }

	return camera.KeyState{
		Forward:        held(sdl.SCANCODE_W),
		Backward:       held(sdl.SCANCODE_S),
		Left:           held(sdl.SCANCODE_A),
		Right:          held(sdl.SCANCODE_D),
		Up:             held(sdl.SCANCODE_SPACE),
		Down:           held(sdl.SCANCODE_LALT),
		Sprint:         held(sdl.SCANCODE_LSHIFT),
		VisibilityUp:   held(sdl.SCANCODE_UP),
		VisibilityDown: held(sdl.SCANCODE_DOWN),
	}
}
