package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

type uniformMap map[string]any

func (u uniformMap) SetVec3(name string, v mgl32.Vec3) { u[name] = v }
func (u uniformMap) SetFloat(name string, v float32)   { u[name] = v }

func TestDirLightNames(t *testing.T) {
	u := uniformMap{}
	DirLight{
		Direction: mgl32.Vec3{-0.2, -1, -0.3},
		Phong:     Phong{Ambient: mgl32.Vec3{0.05, 0.05, 0.05}, Diffuse: mgl32.Vec3{0.4, 0.4, 0.4}, Specular: mgl32.Vec3{0.5, 0.5, 0.5}},
	}.Apply(u, "dirLight")

	assert.Equal(t, uniformMap{
		"dirLight.direction": mgl32.Vec3{-0.2, -1, -0.3},
		"dirLight.ambient":   mgl32.Vec3{0.05, 0.05, 0.05},
		"dirLight.diffuse":   mgl32.Vec3{0.4, 0.4, 0.4},
		"dirLight.specular":  mgl32.Vec3{0.5, 0.5, 0.5},
	}, u)
}

func TestPointLightNames(t *testing.T) {
	u := uniformMap{}
	PointLight{Position: mgl32.Vec3{1, 2, 3}, Attenuation: Range50}.Apply(u, PointLightName(2))

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, u["pointLights[2].position"])
	assert.Equal(t, float32(1), u["pointLights[2].constant"])
	assert.Equal(t, float32(0.09), u["pointLights[2].linear"])
	assert.Equal(t, float32(0.032), u["pointLights[2].quadratic"])
	assert.Contains(t, u, "pointLights[2].ambient")
	assert.Len(t, u, 7)
}

func TestSpotLight(t *testing.T) {
	l := NewSpotLight(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 12.5, 15)
	assert.InDelta(t, 0.976296, l.CutOff, eps)
	assert.InDelta(t, 0.965926, l.OuterCutOff, eps)

	u := uniformMap{}
	l.Apply(u, "spotLight")
	assert.Equal(t, l.CutOff, u["spotLight.cutOff"])
	assert.Equal(t, l.OuterCutOff, u["spotLight.outerCutOff"])
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, u["spotLight.direction"])
	assert.Len(t, u, 10)
}

func TestPointLightSet(t *testing.T) {
	s := NewPointLightSet()
	for i := 0; i < MaxPointLights; i++ {
		require.True(t, s.Add(PointLight{Position: mgl32.Vec3{float32(i), 0, 0}}))
	}
	assert.False(t, s.Add(PointLight{}))
	assert.Equal(t, MaxPointLights, s.Len())

	u := uniformMap{}
	s.Apply(u)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, u["pointLights[3].position"])
	assert.NotContains(t, u, "pointLights[4].position")

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestSunDirection(t *testing.T) {
	overhead := SunDirection(0, 90)
	assert.InDelta(t, 0, overhead.X(), eps)
	assert.InDelta(t, -1, overhead.Y(), eps)

	horizon := SunDirection(90, 0)
	assert.InDelta(t, -1, horizon.X(), eps)
	assert.InDelta(t, 1, horizon.Len(), eps)
}

func TestOrbit(t *testing.T) {
	p := Orbit(0, 5, 3)
	assert.InDelta(t, 5, p.X(), eps)
	assert.InDelta(t, 3, p.Y(), eps)
	assert.InDelta(t, 0, p.Z(), eps)

	q := Orbit(mgl32.DegToRad(90), 5, 0)
	assert.InDelta(t, 0, q.X(), eps)
	assert.InDelta(t, 5, q.Z(), eps)
}
