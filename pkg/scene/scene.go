// Package scene describes an imported 3D scene: a node hierarchy that
// references meshes, and the materials those meshes use.
//
// Scenes are read-only once a Parser returns them.
package scene

import "errors"

// ErrUnsupported reports a file that uses features the parser cannot read.
var ErrUnsupported = errors.New("scene: unsupported content")

// ImportFlags are post-processing steps requested from a Parser.
type ImportFlags uint32

const (
	// Triangulate turns every face into triangles. Point and line
	// primitives are dropped.
	Triangulate ImportFlags = 1 << iota
	// FlipUVs maps texture coordinate v to 1-v.
	FlipUVs
)

// Has reports whether every bit of f is set.
func (i ImportFlags) Has(f ImportFlags) bool { return i&f == f }

// SceneFlags describe the state of a parsed scene.
type SceneFlags uint32

const (
	// Incomplete marks a scene the parser could only partly build, such as
	// a file with meshes but no node hierarchy.
	Incomplete SceneFlags = 1 << iota
)

// TextureType names a material texture slot.
type TextureType string

const (
	TextureDiffuse  TextureType = "texture_diffuse"
	TextureSpecular TextureType = "texture_specular"
)

// Scene is the parser output.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
	Flags     SceneFlags
	// Embedded holds images stored inside the file, keyed by the texture
	// path materials use for them ("*0", "*1", ...).
	Embedded map[string]EmbeddedImage
}

// Incomplete reports whether the Incomplete flag is set.
func (s *Scene) Incomplete() bool {
	return s.Flags&Incomplete != 0
}

// Node is one element of the hierarchy. Meshes index Scene.Meshes.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// Mesh is a set of faces over parallel vertex attribute arrays. Normals
// may be empty; TexCoords holds one slice per UV channel.
type Mesh struct {
	Name      string
	Vertices  [][3]float32
	Normals   [][3]float32
	TexCoords [][][2]float32
	Faces     []Face
	// MaterialIndex indexes Scene.Materials, or is -1.
	MaterialIndex int
}

// HasNormals reports whether there is a normal for every vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
}

// Face is a polygon given as vertex indices.
type Face struct {
	Indices []uint32
}

// Material lists texture paths per slot. Paths are relative to the
// directory of the imported file.
type Material struct {
	Name     string
	Textures map[TextureType][]string
}

// TextureCount returns the number of textures in a slot.
func (m *Material) TextureCount(t TextureType) int {
	return len(m.Textures[t])
}

// Texture returns the i-th path of a slot.
func (m *Material) Texture(t TextureType, i int) string {
	return m.Textures[t][i]
}

// EmbeddedImage is encoded image data carried inside a scene file.
type EmbeddedImage struct {
	Data []byte
	// Ext is a decoder hint such as ".png".
	Ext string
}

// Parser reads a scene file.
type Parser interface {
	Parse(path string, flags ImportFlags) (*Scene, error)
}

// Flatten returns the nodes under root in pre-order.
func Flatten(root *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}
