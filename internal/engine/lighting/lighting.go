// Package lighting holds light parameters and writes them to shader
// uniforms. It does not model lighting; the shaders interpret the values.
package lighting

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms is the part of a shader program lights write to.
type Uniforms interface {
	SetVec3(name string, v mgl32.Vec3)
	SetFloat(name string, v float32)
}

// Phong holds the three colour terms every light carries.
type Phong struct {
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
}

func (p Phong) apply(u Uniforms, name string) {
	u.SetVec3(name+".ambient", p.Ambient)
	u.SetVec3(name+".diffuse", p.Diffuse)
	u.SetVec3(name+".specular", p.Specular)
}

// Attenuation is the constant, linear and quadratic falloff.
type Attenuation struct {
	Constant  float32
	Linear    float32
	Quadratic float32
}

func (a Attenuation) apply(u Uniforms, name string) {
	u.SetFloat(name+".constant", a.Constant)
	u.SetFloat(name+".linear", a.Linear)
	u.SetFloat(name+".quadratic", a.Quadratic)
}

// Range50 is attenuation that fades out over about 50 units.
var Range50 = Attenuation{Constant: 1, Linear: 0.09, Quadratic: 0.032}

// DirLight is a light infinitely far away, such as the sun.
type DirLight struct {
	Direction mgl32.Vec3
	Phong
}

// Apply writes the light to the struct uniform called name.
func (l DirLight) Apply(u Uniforms, name string) {
	u.SetVec3(name+".direction", l.Direction)
	l.Phong.apply(u, name)
}

// PointLight radiates in every direction from Position.
type PointLight struct {
	Position mgl32.Vec3
	Attenuation
	Phong
}

// Apply writes the light to the struct uniform called name.
func (l PointLight) Apply(u Uniforms, name string) {
	u.SetVec3(name+".position", l.Position)
	l.Attenuation.apply(u, name)
	l.Phong.apply(u, name)
}

// SpotLight is a cone. CutOff and OuterCutOff are cosines of the inner and
// outer cone angles.
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	CutOff      float32
	OuterCutOff float32
	Attenuation
	Phong
}

// NewSpotLight builds a cone from angles in degrees.
func NewSpotLight(pos, dir mgl32.Vec3, innerDeg, outerDeg float32) SpotLight {
	return SpotLight{
		Position:    pos,
		Direction:   dir,
		CutOff:      cosDeg(innerDeg),
		OuterCutOff: cosDeg(outerDeg),
		Attenuation: Range50,
	}
}

// Apply writes the light to the struct uniform called name.
func (l SpotLight) Apply(u Uniforms, name string) {
	u.SetVec3(name+".position", l.Position)
	u.SetVec3(name+".direction", l.Direction)
	u.SetFloat(name+".cutOff", l.CutOff)
	u.SetFloat(name+".outerCutOff", l.OuterCutOff)
	l.Attenuation.apply(u, name)
	l.Phong.apply(u, name)
}

// SunDirection converts an azimuth around +Y and an elevation above the
// horizon, both in degrees, to the direction light travels.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))
	toSun := mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
	return toSun.Mul(-1)
}

// Orbit places a point on a horizontal circle of radius r at height y,
// at angle t radians.
func Orbit(t, r, y float32) mgl32.Vec3 {
	return mgl32.Vec3{float32(math.Cos(float64(t))) * r, y, float32(math.Sin(float64(t))) * r}
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

func itoa(i int) string { return strconv.Itoa(i) }
