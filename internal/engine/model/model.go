// Package model imports scene files into drawable meshes and owns the
// textures they share.
package model

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
	"github.com/Faultbox/glsandbox/internal/engine/mesh"
	"github.com/Faultbox/glsandbox/internal/logger"
	"github.com/Faultbox/glsandbox/pkg/scene"
)

// ErrImport reports a scene file the parser could not turn into a model.
var ErrImport = errors.New("model: import failed")

// ImportFlags are the post-processing steps requested for every import.
const ImportFlags = scene.Triangulate | scene.FlipUVs

// TextureLoader creates a texture from an image file.
type TextureLoader interface {
	Load(path string) (uint32, error)
}

// EmbeddedLoader creates a texture from image bytes stored in the scene
// file. Loaders that do not implement it cannot resolve embedded textures.
type EmbeddedLoader interface {
	LoadBytes(name string, data []byte, ext string) (uint32, error)
}

// Model is an imported scene: meshes in pre-order traversal order plus the
// textures they reference, each loaded once.
type Model struct {
	Meshes []*mesh.Mesh
	// Directory resolves relative texture paths.
	Directory string

	dev    gpu.Device
	loaded []mesh.Texture
	byPath map[string]int
}

// LoadedTextures returns the texture cache in load order.
func (m *Model) LoadedTextures() []mesh.Texture {
	return m.loaded
}

// Setup uploads every mesh.
func (m *Model) Setup() {
	for _, msh := range m.Meshes {
		msh.Setup(m.dev)
	}
}

// Draw draws every mesh in order with prog.
func (m *Model) Draw(prog mesh.Uniforms) {
	for _, msh := range m.Meshes {
		msh.Draw(m.dev, prog)
	}
}

// Delete releases mesh buffers and every cached texture.
func (m *Model) Delete() {
	for _, msh := range m.Meshes {
		msh.Delete(m.dev)
	}
	for _, tex := range m.loaded {
		m.dev.DeleteTexture(tex.ID)
	}
	m.loaded = nil
	m.byPath = make(map[string]int)
}

// VertexCount sums vertices over all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, msh := range m.Meshes {
		n += len(msh.Vertices)
	}
	return n
}

// TriangleCount sums triangles over all meshes.
func (m *Model) TriangleCount() int {
	n := 0
	for _, msh := range m.Meshes {
		n += len(msh.Indices) / 3
	}
	return n
}

// Bounds returns the axis-aligned box around every vertex. An empty model
// gives two zero vectors.
func (m *Model) Bounds() (lo, hi mgl32.Vec3) {
	first := true
	for _, msh := range m.Meshes {
		for _, v := range msh.Vertices {
			p := mgl32.Vec3(v.Position)
			if first {
				lo, hi = p, p
				first = false
				continue
			}
			for i := 0; i < 3; i++ {
				lo[i] = min(lo[i], p[i])
				hi[i] = max(hi[i], p[i])
			}
		}
	}
	return lo, hi
}

// Importer turns scene files into Models.
type Importer struct {
	dev      gpu.Device
	parser   scene.Parser
	textures TextureLoader
}

// NewImporter creates an importer. Meshes are uploaded to dev by
// Model.Setup; textures are created by the loader during import.
func NewImporter(dev gpu.Device, parser scene.Parser, textures TextureLoader) *Importer {
	return &Importer{dev: dev, parser: parser, textures: textures}
}

// Import parses path and builds the model. A parser failure, a missing
// scene or an incomplete scene fails the whole import; no partial model
// is returned.
func (im *Importer) Import(path string) (*Model, error) {
	log := logger.Named("model")

	s, err := im.parser.Parse(path, ImportFlags)
	switch {
	case err != nil:
		log.Error("scene import failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrImport, path, err)
	case s == nil:
		log.Error("scene import failed", zap.String("path", path), zap.String("reason", "no scene"))
		return nil, fmt.Errorf("%w: %s: no scene", ErrImport, path)
	case s.Incomplete() || s.Root == nil:
		log.Error("scene import failed", zap.String("path", path), zap.String("reason", "scene incomplete"))
		return nil, fmt.Errorf("%w: %s: scene incomplete", ErrImport, path)
	}

	b := &builder{
		loader: im.textures,
		scene:  s,
		model: &Model{
			Directory: filepath.Dir(path),
			dev:       im.dev,
			byPath:    make(map[string]int),
		},
	}
	if err := b.traverseNode(s.Root); err != nil {
		log.Error("scene import failed", zap.String("path", path), zap.Error(err))
		// Textures loaded so far belong to nobody else.
		b.model.Delete()
		return nil, fmt.Errorf("%w: %s: %w", ErrImport, path, err)
	}

	log.Info("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(b.model.Meshes)),
		zap.Int("textures", len(b.model.loaded)),
		zap.Int("vertices", b.model.VertexCount()),
		zap.Int("triangles", b.model.TriangleCount()),
	)
	return b.model, nil
}

// builder holds the state of one import.
type builder struct {
	loader TextureLoader
	scene  *scene.Scene
	model  *Model
}

// traverseNode appends the node's meshes, then recurses into children.
func (b *builder) traverseNode(node *scene.Node) error {
	for _, idx := range node.Meshes {
		if idx < 0 || idx >= len(b.scene.Meshes) {
			return fmt.Errorf("node %q references mesh %d of %d", node.Name, idx, len(b.scene.Meshes))
		}
		m, err := b.extractMesh(b.scene.Meshes[idx])
		if err != nil {
			return fmt.Errorf("node %q mesh %d: %w", node.Name, idx, err)
		}
		b.model.Meshes = append(b.model.Meshes, m)
	}
	for _, child := range node.Children {
		if err := b.traverseNode(child); err != nil {
			return err
		}
	}
	return nil
}

// extractMesh copies one scene mesh into a fresh mesh.Mesh.
func (b *builder) extractMesh(src *scene.Mesh) (*mesh.Mesh, error) {
	vertices := make([]mesh.Vertex, len(src.Vertices))
	var uv [][2]float32
	if len(src.TexCoords) > 0 {
		uv = src.TexCoords[0]
	}
	for i, p := range src.Vertices {
		v := mesh.Vertex{Position: p}
		if i < len(src.Normals) {
			v.Normal = src.Normals[i]
		}
		if i < len(uv) {
			v.TexCoords = uv[i]
		}
		vertices[i] = v
	}

	var indices []uint32
	for _, f := range src.Faces {
		indices = append(indices, f.Indices...)
	}

	var textures []mesh.Texture
	if src.MaterialIndex >= 0 && src.MaterialIndex < len(b.scene.Materials) {
		mat := b.scene.Materials[src.MaterialIndex]
		textures = append(textures, b.resolveMaterialTextures(mat, scene.TextureDiffuse)...)
		textures = append(textures, b.resolveMaterialTextures(mat, scene.TextureSpecular)...)
	}

	m := mesh.New(vertices, indices, textures)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// resolveMaterialTextures returns the textures of one slot kind, loading
// each relative path at most once per model. A cached image reused under
// another slot kind keeps its handle but takes the requested kind. A
// texture that fails to load is left out.
func (b *builder) resolveMaterialTextures(mat *scene.Material, kind scene.TextureType) []mesh.Texture {
	var out []mesh.Texture
	for i := 0; i < mat.TextureCount(kind); i++ {
		rel := mat.Texture(kind, i)
		if at, ok := b.model.byPath[rel]; ok {
			tex := b.model.loaded[at]
			tex.Kind = string(kind)
			out = append(out, tex)
			continue
		}

		id, err := b.load(rel)
		if err != nil {
			logger.Named("model").Warn("texture skipped",
				zap.String("material", mat.Name),
				zap.String("kind", string(kind)),
				zap.String("path", rel),
				zap.Error(err),
			)
			continue
		}

		tex := mesh.Texture{ID: id, Kind: string(kind), Path: rel}
		b.model.byPath[rel] = len(b.model.loaded)
		b.model.loaded = append(b.model.loaded, tex)
		out = append(out, tex)
	}
	return out
}

func (b *builder) load(rel string) (uint32, error) {
	if img, ok := b.scene.Embedded[rel]; ok {
		el, ok := b.loader.(EmbeddedLoader)
		if !ok {
			return 0, fmt.Errorf("embedded texture %s: loader cannot decode from memory", rel)
		}
		return el.LoadBytes(rel, img.Data, img.Ext)
	}
	return b.loader.Load(filepath.Join(b.model.Directory, rel))
}
