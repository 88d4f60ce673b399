// Package camera provides a first-person fly camera driven by Euler angles.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glsandbox/internal/config"
)

// Movement is a keyboard movement direction.
type Movement int

const (
	Forward Movement = iota
	Backward
	Left
	Right
	Up
	Down
)

const (
	DefaultSpeed            float32 = 1.0
	DefaultSensitivity      float32 = 0.1
	DefaultFov              float32 = 90.0
	DefaultMaxFov           float32 = 90.0
	DefaultSprintMultiplier float32 = 2.0

	// MinFov is the narrowest zoom ProcessScroll allows.
	MinFov float32 = 1.0
	// PitchLimit keeps the view from flipping over the poles.
	PitchLimit float32 = 89.0
)

// Camera is a fly camera. Front, Up and Right are derived from Yaw and
// Pitch and always form an orthonormal basis; WorldUp is fixed at creation.
type Camera struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Right    mgl32.Vec3
	WorldUp  mgl32.Vec3

	// Euler angles in degrees. Roll is carried but not applied.
	Yaw   float32
	Pitch float32
	Roll  float32

	Speed       float32
	Fov         float32
	MaxFov      float32
	Sensitivity float32

	// Sprinting scales Speed by SprintMultiplier while set.
	Sprinting        bool
	SprintMultiplier float32
}

// New creates a camera at position whose world up is up. The front argument
// is only a seed; the real front comes from yaw and pitch.
func New(position, front, up mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position:         position,
		Front:            front,
		Up:               up,
		WorldUp:          up,
		Yaw:              yaw,
		Pitch:            pitch,
		Speed:            DefaultSpeed,
		Fov:              DefaultFov,
		MaxFov:           DefaultMaxFov,
		Sensitivity:      DefaultSensitivity,
		SprintMultiplier: DefaultSprintMultiplier,
	}
	c.updateVectors()
	return c
}

// NewDefault creates a camera at (0,0,3) looking down -Z.
func NewDefault() *Camera {
	return New(
		mgl32.Vec3{0, 0, 3},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
		-90, 0,
	)
}

// FromConfig creates a default-oriented camera with configured tuning.
func FromConfig(cfg config.CameraConfig) *Camera {
	c := NewDefault()
	c.Position = mgl32.Vec3(cfg.Position)
	c.Speed = cfg.Speed
	c.Sensitivity = cfg.Sensitivity
	c.MaxFov = cfg.MaxFov
	c.Fov = clamp(cfg.Fov, MinFov, cfg.MaxFov)
	c.SprintMultiplier = cfg.SprintMultiplier
	return c
}

// ViewMatrix returns the right-handed look-at transform for the camera.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// Projection returns a perspective projection using the current fov.
func (c *Camera) Projection(aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, near, far)
}

// velocity returns the distance covered in dt seconds.
func (c *Camera) velocity(dt float32) float32 {
	speed := c.Speed
	if c.Sprinting && c.SprintMultiplier > 0 {
		speed *= c.SprintMultiplier
	}
	return speed * dt
}

// ProcessKeyboard moves the camera in direction for dt seconds.
func (c *Camera) ProcessKeyboard(direction Movement, dt float32) {
	v := c.velocity(dt)

	switch direction {
	case Forward:
		c.Position = c.Position.Add(c.Front.Mul(v))
	case Backward:
		c.Position = c.Position.Sub(c.Front.Mul(v))
	case Left:
		c.Position = c.Position.Sub(c.Front.Cross(c.Up).Normalize().Mul(v))
	case Right:
		c.Position = c.Position.Add(c.Front.Cross(c.Up).Normalize().Mul(v))
	case Up:
		c.Position = c.Position.Add(c.WorldUp.Mul(v))
	case Down:
		c.Position = c.Position.Sub(c.WorldUp.Mul(v))
	}

	c.updateVectors()
}

// ProcessMouseMovement turns the camera by cursor offsets in pixels.
// With constrainPitch the pitch stays inside [-PitchLimit, PitchLimit].
func (c *Camera) ProcessMouseMovement(xOffset, yOffset float32, constrainPitch bool) {
	c.Yaw += xOffset * c.Sensitivity
	c.Pitch += yOffset * c.Sensitivity

	if constrainPitch {
		c.Pitch = clamp(c.Pitch, -PitchLimit, PitchLimit)
	}

	c.updateVectors()
}

// ProcessScroll zooms by narrowing or widening the fov.
func (c *Camera) ProcessScroll(yOffset float32) {
	c.Fov = clamp(c.Fov-yOffset, MinFov, c.MaxFov)
}

// updateVectors recomputes front, then right from the fixed world up, then
// up. Deriving right from WorldUp keeps roll error from accumulating.
func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))

	front := mgl32.Vec3{
		float32(gomath.Cos(yaw) * gomath.Cos(pitch)),
		float32(gomath.Sin(pitch)),
		float32(gomath.Sin(yaw) * gomath.Cos(pitch)),
	}
	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
