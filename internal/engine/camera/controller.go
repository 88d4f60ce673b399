package camera

// VisibilityStep is how far one frame of the visibility keys moves the blend.
const VisibilityStep float32 = 0.05

// KeyState is the set of held keys for one frame, filled by the input layer.
type KeyState struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
	Sprint            bool

	VisibilityUp, VisibilityDown bool
}

// Controller owns the per-session input state that drives a Camera: the
// last cursor position and the texture blend factor sent to shaders as
// the "visibility" uniform.
type Controller struct {
	Camera         *Camera
	Visibility     float32
	ConstrainPitch bool

	firstMouse   bool
	lastX, lastY float32
}

// NewController wraps cam with pitch constraint on and visibility at 0.2.
func NewController(cam *Camera) *Controller {
	return &Controller{
		Camera:         cam,
		Visibility:     0.2,
		ConstrainPitch: true,
		firstMouse:     true,
	}
}

// MouseMoved handles an absolute cursor position. The first event only
// records the position so the view does not jump.
func (c *Controller) MouseMoved(x, y float32) {
	if c.firstMouse {
		c.lastX, c.lastY = x, y
		c.firstMouse = false
	}

	// Screen y grows downwards
	xOffset := x - c.lastX
	yOffset := c.lastY - y
	c.lastX, c.lastY = x, y

	c.Camera.ProcessMouseMovement(xOffset, yOffset, c.ConstrainPitch)
}

// MouseDelta handles relative motion from a captured cursor.
func (c *Controller) MouseDelta(dx, dy float32) {
	c.Camera.ProcessMouseMovement(dx, -dy, c.ConstrainPitch)
}

// Scrolled handles a wheel step.
func (c *Controller) Scrolled(dy float32) {
	c.Camera.ProcessScroll(dy)
}

// Update applies held keys for a frame of dt seconds.
func (c *Controller) Update(keys KeyState, dt float32) {
	cam := c.Camera
	cam.Sprinting = keys.Sprint

	if keys.Forward {
		cam.ProcessKeyboard(Forward, dt)
	}
	if keys.Backward {
		cam.ProcessKeyboard(Backward, dt)
	}
	if keys.Left {
		cam.ProcessKeyboard(Left, dt)
	}
	if keys.Right {
		cam.ProcessKeyboard(Right, dt)
	}
	if keys.Up {
		cam.ProcessKeyboard(Up, dt)
	}
	if keys.Down {
		cam.ProcessKeyboard(Down, dt)
	}

	if keys.VisibilityUp {
		c.Visibility = clamp(c.Visibility+VisibilityStep, 0, 1)
	}
	if keys.VisibilityDown {
		c.Visibility = clamp(c.Visibility-VisibilityStep, 0, 1)
	}
}
