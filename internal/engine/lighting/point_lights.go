package lighting

// MaxPointLights is the size of the pointLights array in the shaders.
const MaxPointLights = 4

// PointLightName returns the uniform name of the i-th point light,
// e.g. pointLights[0].
func PointLightName(i int) string {
	return "pointLights[" + itoa(i) + "]"
}

// PointLightSet is a fixed-capacity list of point lights.
type PointLightSet struct {
	Lights []PointLight
}

// NewPointLightSet creates an empty set.
func NewPointLightSet() *PointLightSet {
	return &PointLightSet{Lights: make([]PointLight, 0, MaxPointLights)}
}

// Add appends a light. It returns false when the set is full.
func (s *PointLightSet) Add(l PointLight) bool {
	if len(s.Lights) >= MaxPointLights {
		return false
	}
	s.Lights = append(s.Lights, l)
	return true
}

// Clear removes every light.
func (s *PointLightSet) Clear() {
	s.Lights = s.Lights[:0]
}

// Len returns the number of lights.
func (s *PointLightSet) Len() int {
	return len(s.Lights)
}

// Apply writes every light to pointLights[i]. Unused slots are not touched.
func (s *PointLightSet) Apply(u Uniforms) {
	for i, l := range s.Lights {
		l.Apply(u, PointLightName(i))
	}
}
