package camera

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glsandbox/internal/config"
)

const eps = 1e-4

func TestNewDefault(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, mgl32.Vec3{0, 0, 3}, c.Position)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.WorldUp)
	assert.Equal(t, float32(-90), c.Yaw)
	assert.Equal(t, float32(0), c.Pitch)
	assert.Equal(t, DefaultFov, c.Fov)
	assert.Equal(t, DefaultSensitivity, c.Sensitivity)
	assert.Equal(t, DefaultSpeed, c.Speed)

	// yaw -90 looks down -Z
	assert.True(t, c.Front.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, eps), "front %v", c.Front)
	assert.True(t, c.Right.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, eps), "right %v", c.Right)
	assert.True(t, c.Up.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, eps), "up %v", c.Up)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Camera
	cfg.Position = [3]float32{4, 5, 6}
	cfg.Speed = 3
	cfg.Fov = 120
	cfg.MaxFov = 60

	c := FromConfig(cfg)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, c.Position)
	assert.Equal(t, float32(3), c.Speed)
	assert.Equal(t, float32(60), c.Fov, "fov clamps to max")
	assert.Equal(t, float32(60), c.MaxFov)
}

func TestOrientationBasisIsOrthonormal(t *testing.T) {
	for yaw := float32(0); yaw < 360; yaw += 7.5 {
		for pitch := float32(-88.5); pitch < 89; pitch += 4.5 {
			c := New(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, yaw, pitch)

			require.InDelta(t, 1, c.Front.Len(), eps, "front yaw=%v pitch=%v", yaw, pitch)
			require.InDelta(t, 1, c.Right.Len(), eps, "right yaw=%v pitch=%v", yaw, pitch)
			require.InDelta(t, 1, c.Up.Len(), eps, "up yaw=%v pitch=%v", yaw, pitch)

			require.InDelta(t, 0, c.Front.Dot(c.Right), eps)
			require.InDelta(t, 0, c.Front.Dot(c.Up), eps)
			require.InDelta(t, 0, c.Right.Dot(c.Up), eps)
		}
	}
}

func TestPitchStaysConstrained(t *testing.T) {
	c := NewDefault()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		dx := rng.Float32()*400 - 200
		dy := rng.Float32()*400 - 200
		c.ProcessMouseMovement(dx, dy, true)

		require.GreaterOrEqual(t, c.Pitch, -PitchLimit)
		require.LessOrEqual(t, c.Pitch, PitchLimit)
		require.InDelta(t, 1, c.Front.Len(), eps)
	}
}

func TestPitchUnconstrained(t *testing.T) {
	c := NewDefault()
	c.ProcessMouseMovement(0, 1000, false)
	assert.Equal(t, float32(100), c.Pitch)
}

func TestMouseMovementScalesBySensitivity(t *testing.T) {
	c := NewDefault()
	c.ProcessMouseMovement(100, 50, true)

	assert.InDelta(t, -80, c.Yaw, eps)
	assert.InDelta(t, 5, c.Pitch, eps)
}

func TestFovStaysClamped(t *testing.T) {
	c := NewDefault()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		c.ProcessScroll(rng.Float32()*40 - 20)
		require.GreaterOrEqual(t, c.Fov, MinFov)
		require.LessOrEqual(t, c.Fov, c.MaxFov)
	}

	c.ProcessScroll(1000)
	assert.Equal(t, MinFov, c.Fov)
	c.ProcessScroll(-1000)
	assert.Equal(t, DefaultMaxFov, c.Fov)
}

func TestForwardBackwardIsInverse(t *testing.T) {
	for _, yaw := range []float32{-90, 0, 33, 180, 271} {
		c := New(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, yaw, 20)
		start := c.Position

		c.ProcessKeyboard(Forward, 0.016)
		assert.False(t, c.Position.ApproxEqualThreshold(start, eps))
		c.ProcessKeyboard(Backward, 0.016)
		assert.True(t, c.Position.ApproxEqualThreshold(start, eps), "yaw %v: %v != %v", yaw, c.Position, start)
	}
}

func TestKeyboardDirections(t *testing.T) {
	tests := []struct {
		dir  Movement
		want mgl32.Vec3
	}{
		{Forward, mgl32.Vec3{0, 0, 2}},
		{Backward, mgl32.Vec3{0, 0, 4}},
		{Left, mgl32.Vec3{-1, 0, 3}},
		{Right, mgl32.Vec3{1, 0, 3}},
		{Up, mgl32.Vec3{0, 1, 3}},
		{Down, mgl32.Vec3{0, -1, 3}},
	}

	for _, tt := range tests {
		c := NewDefault()
		c.ProcessKeyboard(tt.dir, 1)
		assert.True(t, c.Position.ApproxEqualThreshold(tt.want, eps), "dir %d: got %v want %v", tt.dir, c.Position, tt.want)
	}
}

func TestSprintingMultipliesSpeed(t *testing.T) {
	walk := NewDefault()
	walk.ProcessKeyboard(Forward, 0.5)

	sprint := NewDefault()
	sprint.Sprinting = true
	sprint.ProcessKeyboard(Forward, 0.5)

	walked := walk.Position.Sub(mgl32.Vec3{0, 0, 3}).Len()
	sprinted := sprint.Position.Sub(mgl32.Vec3{0, 0, 3}).Len()
	assert.InDelta(t, walked*DefaultSprintMultiplier, sprinted, eps)
}

func TestViewMatrix(t *testing.T) {
	c := NewDefault()
	c.ProcessMouseMovement(123, -77, true)
	view := c.ViewMatrix()

	eye := mgl32.TransformCoordinate(c.Position, view)
	assert.True(t, eye.ApproxEqualThreshold(mgl32.Vec3{}, eps), "eye maps to origin, got %v", eye)

	ahead := mgl32.TransformCoordinate(c.Position.Add(c.Front), view)
	assert.True(t, ahead.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, eps), "front maps to -Z, got %v", ahead)
}

func TestProjectionUsesFov(t *testing.T) {
	c := NewDefault()
	wide := c.Projection(1, 0.1, 100)
	c.ProcessScroll(45)
	narrow := c.Projection(1, 0.1, 100)

	assert.Greater(t, narrow[5], wide[5])
}
