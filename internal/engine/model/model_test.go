package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
	"github.com/Faultbox/glsandbox/internal/engine/mesh"
	"github.com/Faultbox/glsandbox/internal/logger"
	"github.com/Faultbox/glsandbox/pkg/scene"
)

// stubParser returns a fixed scene and records the request.
type stubParser struct {
	scene *scene.Scene
	err   error
	path  string
	flags scene.ImportFlags
}

func (p *stubParser) Parse(path string, flags scene.ImportFlags) (*scene.Scene, error) {
	p.path, p.flags = path, flags
	return p.scene, p.err
}

// countingLoader hands out handles and counts loads per path.
type countingLoader struct {
	next    uint32
	calls   map[string]int
	order   []string
	failing map[string]bool
	bytes   []string
}

func newCountingLoader() *countingLoader {
	return &countingLoader{next: 100, calls: make(map[string]int), failing: make(map[string]bool)}
}

func (l *countingLoader) Load(path string) (uint32, error) {
	l.calls[path]++
	l.order = append(l.order, path)
	if l.failing[filepath.Base(path)] {
		return 0, errors.New("no such file")
	}
	l.next++
	return l.next, nil
}

func (l *countingLoader) LoadBytes(name string, _ []byte, _ string) (uint32, error) {
	l.bytes = append(l.bytes, name)
	l.next++
	return l.next, nil
}

func tri(name string, material int, offset float32) *scene.Mesh {
	return &scene.Mesh{
		Name:          name,
		Vertices:      [][3]float32{{offset, 0, 0}, {offset + 1, 0, 0}, {offset, 1, 0}},
		Normals:       [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords:     [][][2]float32{{{0, 0}, {1, 0}, {0, 1}}},
		Faces:         []scene.Face{{Indices: []uint32{0, 1, 2}}},
		MaterialIndex: material,
	}
}

// backpackScene has three meshes and two materials sharing a diffuse map:
//
//	root [0]
//	├── a [2]
//	│   └── a1 [1, 0]
//	└── b []
//	    └── b1 [2]
func backpackScene() *scene.Scene {
	return &scene.Scene{
		Meshes: []*scene.Mesh{
			tri("body", 0, 0),
			tri("straps", 1, 10),
			tri("loose", -1, 20),
		},
		Materials: []*scene.Material{
			{Name: "body", Textures: map[scene.TextureType][]string{
				scene.TextureDiffuse:  {"body_diffuse.png"},
				scene.TextureSpecular: {"body_specular.png"},
			}},
			{Name: "straps", Textures: map[scene.TextureType][]string{
				scene.TextureDiffuse: {"body_diffuse.png", "straps_diffuse.png"},
			}},
		},
		Root: &scene.Node{Name: "root", Meshes: []int{0}, Children: []*scene.Node{
			{Name: "a", Meshes: []int{2}, Children: []*scene.Node{{Name: "a1", Meshes: []int{1, 0}}}},
			{Name: "b", Children: []*scene.Node{{Name: "b1", Meshes: []int{2}}}},
		}},
	}
}

func importBackpack(t *testing.T) (*Model, *countingLoader, *gpu.Recorder, *stubParser) {
	t.Helper()
	dev := gpu.NewRecorder()
	loader := newCountingLoader()
	parser := &stubParser{scene: backpackScene()}

	m, err := NewImporter(dev, parser, loader).Import(filepath.Join("assets", "backpack", "backpack.obj"))
	require.NoError(t, err)
	return m, loader, dev, parser
}

func firstXs(m *Model) []float32 {
	var first []float32
	for _, msh := range m.Meshes {
		first = append(first, msh.Vertices[0].Position[0])
	}
	return first
}

func TestImportRequestsTriangulatedFlippedScene(t *testing.T) {
	_, _, _, parser := importBackpack(t)
	assert.True(t, parser.flags.Has(scene.Triangulate))
	assert.True(t, parser.flags.Has(scene.FlipUVs))
}

func TestImportPreOrder(t *testing.T) {
	m, _, _, _ := importBackpack(t)

	assert.Equal(t, filepath.Join("assets", "backpack"), m.Directory)
	// root:body, a:loose, a1:straps, a1:body, b1:loose
	assert.Equal(t, []float32{0, 20, 10, 0, 20}, firstXs(m))
}

func TestImportCopiesGeometry(t *testing.T) {
	m, _, _, _ := importBackpack(t)
	src := tri("body", 0, 0)

	body := m.Meshes[0]
	require.Len(t, body.Vertices, 3)
	for i, v := range body.Vertices {
		assert.Equal(t, src.Vertices[i], v.Position)
		assert.Equal(t, src.Normals[i], v.Normal)
		assert.Equal(t, src.TexCoords[0][i], v.TexCoords)
	}
	assert.Equal(t, []uint32{0, 1, 2}, body.Indices)
}

func TestImportDeduplicatesTextures(t *testing.T) {
	m, loader, dev, _ := importBackpack(t)

	diffuse := filepath.Join("assets", "backpack", "body_diffuse.png")
	assert.Equal(t, 1, loader.calls[diffuse])
	assert.Equal(t, []string{
		diffuse,
		filepath.Join("assets", "backpack", "body_specular.png"),
		filepath.Join("assets", "backpack", "straps_diffuse.png"),
	}, loader.order)

	cached := m.LoadedTextures()
	require.Len(t, cached, 3)
	assert.Equal(t, "body_diffuse.png", cached[0].Path)
	assert.Equal(t, mesh.KindDiffuse, cached[0].Kind)
	assert.Equal(t, mesh.KindSpecular, cached[1].Kind)

	seen := make(map[string]bool)
	for _, tex := range cached {
		assert.False(t, seen[tex.Path], "duplicate cache entry %s", tex.Path)
		seen[tex.Path] = true
	}

	// Both meshes using body_diffuse.png share the handle.
	body, straps := m.Meshes[0], m.Meshes[2]
	assert.Equal(t, body.Textures[0].ID, straps.Textures[0].ID)
	assert.Zero(t, dev.TexturesCreated, "the loader owns texture creation")
}

func TestImportDiffuseBeforeSpecular(t *testing.T) {
	m, _, _, _ := importBackpack(t)

	kinds := func(msh *mesh.Mesh) []string {
		var out []string
		for _, tex := range msh.Textures {
			out = append(out, tex.Kind)
		}
		return out
	}
	assert.Equal(t, []string{mesh.KindDiffuse, mesh.KindSpecular}, kinds(m.Meshes[0]))
	assert.Equal(t, []string{mesh.KindDiffuse, mesh.KindDiffuse}, kinds(m.Meshes[2]))
}

// samplerLog records sampler assignments made while drawing.
type samplerLog map[string]int32

func (s samplerLog) SetInt(name string, v int32) { s[name] = v }

func TestCachedTextureTakesSlotKind(t *testing.T) {
	s := &scene.Scene{
		Meshes: []*scene.Mesh{tri("a", 0, 0), tri("b", 1, 10)},
		Materials: []*scene.Material{
			{Name: "a", Textures: map[scene.TextureType][]string{
				scene.TextureDiffuse: {"shared.png"},
			}},
			{Name: "b", Textures: map[scene.TextureType][]string{
				scene.TextureDiffuse:  {"b_diffuse.png"},
				scene.TextureSpecular: {"shared.png"},
			}},
		},
		Root: &scene.Node{Name: "root", Meshes: []int{0, 1}},
	}
	dev := gpu.NewRecorder()
	loader := newCountingLoader()

	m, err := NewImporter(dev, &stubParser{scene: s}, loader).Import("m.glb")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls["shared.png"])

	a, b := m.Meshes[0], m.Meshes[1]
	require.Len(t, b.Textures, 2)
	assert.Equal(t, mesh.KindDiffuse, a.Textures[0].Kind)
	assert.Equal(t, mesh.KindSpecular, b.Textures[1].Kind)
	assert.Equal(t, a.Textures[0].ID, b.Textures[1].ID)
	assert.Equal(t, "shared.png", b.Textures[1].Path)

	cached := m.LoadedTextures()
	require.Len(t, cached, 2)
	assert.Equal(t, mesh.KindDiffuse, cached[0].Kind)

	m.Setup()
	samplers := samplerLog{}
	b.Draw(dev, samplers)
	assert.Equal(t, samplerLog{
		"material.texture_diffuse1":  0,
		"material.texture_specular1": 1,
	}, samplers)
	assert.Equal(t, a.Textures[0].ID, dev.UnitBindings[1])
}

func TestMeshWithoutMaterialStillDraws(t *testing.T) {
	m, _, dev, _ := importBackpack(t)
	loose := m.Meshes[1]
	assert.Empty(t, loose.Textures)

	m.Setup()
	m.Draw(noUniforms{})
	require.Len(t, dev.Draws, 5)
	assert.Equal(t, int32(3), dev.Draws[1].Count)
}

type noUniforms struct{}

func (noUniforms) SetInt(string, int32) {}

func TestImportMissingNormalsAndUVs(t *testing.T) {
	s := backpackScene()
	s.Meshes[0].Normals = nil
	s.Meshes[0].TexCoords = nil

	m, err := NewImporter(gpu.NewRecorder(), &stubParser{scene: s}, newCountingLoader()).Import("m.obj")
	require.NoError(t, err)
	for _, v := range m.Meshes[0].Vertices {
		assert.Equal(t, [3]float32{}, v.Normal)
		assert.Equal(t, [2]float32{}, v.TexCoords)
	}
}

func TestImportFlattensFacesInOrder(t *testing.T) {
	s := backpackScene()
	s.Meshes[0].Vertices = append(s.Meshes[0].Vertices, [3]float32{1, 1, 0})
	s.Meshes[0].Normals = nil
	s.Meshes[0].Faces = []scene.Face{{Indices: []uint32{2, 1, 0}}, {Indices: []uint32{1, 3, 2}}}

	m, err := NewImporter(gpu.NewRecorder(), &stubParser{scene: s}, newCountingLoader()).Import("m.obj")
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0, 1, 3, 2}, m.Meshes[0].Indices)
}

func TestImportFailures(t *testing.T) {
	incomplete := backpackScene()
	incomplete.Flags |= scene.Incomplete

	rootless := backpackScene()
	rootless.Root = nil

	badRef := backpackScene()
	badRef.Root.Meshes = []int{7}

	badIndex := backpackScene()
	badIndex.Meshes[0].Faces = []scene.Face{{Indices: []uint32{0, 1, 9}}}

	tests := []struct {
		name   string
		parser *stubParser
		cause  error
	}{
		{"parser error", &stubParser{err: os.ErrNotExist}, os.ErrNotExist},
		{"nil scene", &stubParser{}, nil},
		{"incomplete", &stubParser{scene: incomplete}, nil},
		{"no root", &stubParser{scene: rootless}, nil},
		{"bad mesh reference", &stubParser{scene: badRef}, nil},
		{"index out of range", &stubParser{scene: badIndex}, mesh.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			logger.Set(zap.New(core))
			t.Cleanup(func() { logger.Set(nil) })

			dev := gpu.NewRecorder()
			m, err := NewImporter(dev, tt.parser, newCountingLoader()).Import("broken.obj")
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrImport)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.Equal(t, 1, logs.FilterMessage("scene import failed").Len())
		})
	}
}

func TestFailedTextureIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	loader := newCountingLoader()
	loader.failing["body_specular.png"] = true

	m, err := NewImporter(gpu.NewRecorder(), &stubParser{scene: backpackScene()}, loader).Import("m.obj")
	require.NoError(t, err)
	require.Len(t, m.Meshes[0].Textures, 1)
	assert.Equal(t, mesh.KindDiffuse, m.Meshes[0].Textures[0].Kind)
	assert.Len(t, m.LoadedTextures(), 2)

	// A failed slot is retried by later meshes that use it.
	assert.Equal(t, 2, loader.calls["body_specular.png"])
	assert.Equal(t, 2, logs.FilterMessage("texture skipped").Len())
}

func TestEmbeddedTextures(t *testing.T) {
	s := backpackScene()
	s.Materials[0].Textures[scene.TextureDiffuse] = []string{"*0"}
	s.Embedded = map[string]scene.EmbeddedImage{"*0": {Data: []byte{1}, Ext: ".png"}}

	loader := newCountingLoader()
	m, err := NewImporter(gpu.NewRecorder(), &stubParser{scene: s}, loader).Import("m.glb")
	require.NoError(t, err)
	assert.Equal(t, []string{"*0"}, loader.bytes)
	assert.Equal(t, "*0", m.Meshes[0].Textures[0].Path)
}

func TestDeleteReleasesEverything(t *testing.T) {
	dev := gpu.NewRecorder()
	loader := textureDevice{dev}
	m, err := NewImporter(dev, &stubParser{scene: backpackScene()}, loader).Import("m.obj")
	require.NoError(t, err)

	m.Setup()
	require.Equal(t, 3, dev.LiveTextures())
	require.Equal(t, 15, dev.LiveBuffers())

	m.Delete()
	assert.Zero(t, dev.LiveTextures())
	assert.Zero(t, dev.LiveBuffers())
	assert.Empty(t, m.LoadedTextures())
}

// textureDevice creates blank textures on the device for any path.
type textureDevice struct{ dev *gpu.Recorder }

func (l textureDevice) Load(string) (uint32, error) {
	return l.dev.CreateTexture(nil, gpu.TextureOptions{}), nil
}

func TestCounts(t *testing.T) {
	m, _, _, _ := importBackpack(t)
	assert.Equal(t, 15, m.VertexCount())
	assert.Equal(t, 5, m.TriangleCount())
}

func TestBounds(t *testing.T) {
	m, _, _, _ := importBackpack(t)
	lo, hi := m.Bounds()
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{21, 1, 0}, hi)

	lo, hi = (&Model{}).Bounds()
	assert.Equal(t, mgl32.Vec3{}, lo)
	assert.Equal(t, mgl32.Vec3{}, hi)
}
