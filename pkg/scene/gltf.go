package scene

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const (
	extSpecular = "KHR_materials_specular"
	rootName    = "RootNode"
)

// supportedExtensions may appear in extensionsRequired.
var supportedExtensions = map[string]bool{
	extSpecular: true,
}

// GLTFParser reads glTF 2.0 files (.gltf and .glb).
//
// Each glTF primitive becomes one scene Mesh. The base colour texture
// fills the diffuse slot and KHR_materials_specular fills the specular
// slot. Node transforms are not applied.
type GLTFParser struct{}

// Parse implements Parser.
func (GLTFParser) Parse(path string, flags ImportFlags) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return FromGLTF(doc, flags)
}

// FromGLTF converts an already decoded document. Without Triangulate,
// point and line primitives come through as 1- and 2-index faces, so the
// result is only ready for triangle drawing when the flag is set.
func FromGLTF(doc *gltf.Document, flags ImportFlags) (*Scene, error) {
	for _, ext := range doc.ExtensionsRequired {
		if !supportedExtensions[ext] {
			return nil, fmt.Errorf("%w: required extension %s", ErrUnsupported, ext)
		}
	}

	c := &converter{
		doc:      doc,
		flags:    flags,
		scene:    &Scene{Embedded: make(map[string]EmbeddedImage)},
		meshRefs: make(map[int][]int, len(doc.Meshes)),
	}

	if err := c.convertMaterials(); err != nil {
		return nil, err
	}
	if err := c.convertMeshes(); err != nil {
		return nil, err
	}
	c.convertHierarchy()
	return c.scene, nil
}

type converter struct {
	doc   *gltf.Document
	flags ImportFlags
	scene *Scene
	// meshRefs maps a glTF mesh to the scene meshes made from its primitives.
	meshRefs map[int][]int
}

func (c *converter) convertMaterials() error {
	for i, m := range c.doc.Materials {
		mat := &Material{Name: m.Name, Textures: make(map[TextureType][]string)}

		if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
			if p, ok := c.texturePath(int(pbr.BaseColorTexture.Index)); ok {
				mat.Textures[TextureDiffuse] = append(mat.Textures[TextureDiffuse], p)
			}
		}

		spec, err := specularTexture(m.Extensions)
		if err != nil {
			return fmt.Errorf("material %d %q: %w", i, m.Name, err)
		}
		if spec != nil {
			if p, ok := c.texturePath(*spec); ok {
				mat.Textures[TextureSpecular] = append(mat.Textures[TextureSpecular], p)
			}
		}

		c.scene.Materials = append(c.scene.Materials, mat)
	}
	return nil
}

// specularTexture returns KHR_materials_specular.specularTexture.index.
func specularTexture(exts gltf.Extensions) (*int, error) {
	raw, ok := exts[extSpecular]
	if !ok {
		return nil, nil
	}
	data, ok := raw.(json.RawMessage)
	if !ok {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", extSpecular, err)
		}
	}

	var spec struct {
		SpecularTexture *struct {
			Index int `json:"index"`
		} `json:"specularTexture"`
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%s: %w", extSpecular, err)
	}
	if spec.SpecularTexture == nil {
		return nil, nil
	}
	return &spec.SpecularTexture.Index, nil
}

// texturePath resolves a texture to the path materials store. External
// images use their URI; embedded images get "*<image index>" and their
// bytes go to Scene.Embedded.
func (c *converter) texturePath(texture int) (string, bool) {
	if texture < 0 || texture >= len(c.doc.Textures) {
		return "", false
	}
	src := c.doc.Textures[texture].Source
	if src == nil || int(*src) >= len(c.doc.Images) {
		return "", false
	}
	idx := int(*src)
	img := c.doc.Images[idx]

	if img.URI != "" && !img.IsEmbeddedResource() {
		if p, err := url.PathUnescape(img.URI); err == nil {
			return p, true
		}
		return img.URI, true
	}

	key := "*" + strconv.Itoa(idx)
	if _, done := c.scene.Embedded[key]; done {
		return key, true
	}

	var data []byte
	var err error
	if img.BufferView != nil {
		data, err = c.bufferView(int(*img.BufferView))
	} else {
		data, err = img.MarshalData()
	}
	if err != nil || len(data) == 0 {
		return "", false
	}
	c.scene.Embedded[key] = EmbeddedImage{Data: data, Ext: mimeExt(img.MimeType)}
	return key, true
}

func (c *converter) bufferView(i int) ([]byte, error) {
	if i >= len(c.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", i)
	}
	bv := c.doc.BufferViews[i]
	if int(bv.Buffer) >= len(c.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	buf := c.doc.Buffers[int(bv.Buffer)].Data
	start, end := int(bv.ByteOffset), int(bv.ByteOffset)+int(bv.ByteLength)
	if end > len(buf) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer", i)
	}
	return buf[start:end], nil
}

func mimeExt(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func (c *converter) convertMeshes() error {
	for mi, gm := range c.doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := c.convertPrimitive(prim)
			if err != nil {
				return fmt.Errorf("mesh %d %q primitive %d: %w", mi, gm.Name, pi, err)
			}
			if m == nil {
				continue
			}
			m.Name = gm.Name
			c.meshRefs[mi] = append(c.meshRefs[mi], len(c.scene.Meshes))
			c.scene.Meshes = append(c.scene.Meshes, m)
		}
	}
	return nil
}

// convertPrimitive returns nil for primitives that triangulation drops.
func (c *converter) convertPrimitive(prim *gltf.Primitive) (*Mesh, error) {
	if c.flags.Has(Triangulate) && !isSurface(prim.Mode) {
		return nil, nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: primitive without POSITION", ErrUnsupported)
	}
	m := &Mesh{MaterialIndex: -1}
	if prim.Material != nil {
		m.MaterialIndex = int(*prim.Material)
	}

	acc, err := c.accessor(int(posIdx))
	if err != nil {
		return nil, err
	}
	if m.Vertices, err = modeler.ReadPosition(c.doc, acc, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err = c.accessor(int(idx)); err != nil {
			return nil, err
		}
		if m.Normals, err = modeler.ReadNormal(c.doc, acc, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}
	for ch := 0; ; ch++ {
		idx, ok := prim.Attributes["TEXCOORD_"+strconv.Itoa(ch)]
		if !ok {
			break
		}
		if acc, err = c.accessor(int(idx)); err != nil {
			return nil, err
		}
		uv, err := modeler.ReadTextureCoord(c.doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("reading TEXCOORD_%d: %w", ch, err)
		}
		if c.flags.Has(FlipUVs) {
			for i := range uv {
				uv[i][1] = 1 - uv[i][1]
			}
		}
		m.TexCoords = append(m.TexCoords, uv)
	}

	var indices []uint32
	if prim.Indices != nil {
		if acc, err = c.accessor(int(*prim.Indices)); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(c.doc, acc, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(m.Vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	m.Faces = faces(prim.Mode, indices)
	return m, nil
}

// accessor resolves an accessor index from a primitive.
func (c *converter) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(c.doc.Accessors) || c.doc.Accessors[i] == nil {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrUnsupported, i)
	}
	return c.doc.Accessors[i], nil
}

func isSurface(mode gltf.PrimitiveMode) bool {
	switch mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
		return true
	}
	return false
}

// faces groups an index stream into polygons according to the topology.
// Strips and fans become triangle lists with consistent winding.
func faces(mode gltf.PrimitiveMode, idx []uint32) []Face {
	var out []Face
	switch mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(idx); i += 3 {
			out = append(out, Face{Indices: []uint32{idx[i], idx[i+1], idx[i+2]}})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, Face{Indices: []uint32{idx[i], idx[i+1], idx[i+2]}})
			} else {
				out = append(out, Face{Indices: []uint32{idx[i+1], idx[i], idx[i+2]}})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(idx); i++ {
			out = append(out, Face{Indices: []uint32{idx[0], idx[i], idx[i+1]}})
		}
	case gltf.PrimitivePoints:
		for _, v := range idx {
			out = append(out, Face{Indices: []uint32{v}})
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			out = append(out, Face{Indices: []uint32{idx[i], idx[i+1]}})
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			out = append(out, Face{Indices: []uint32{idx[i], idx[i+1]}})
		}
		if mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			out = append(out, Face{Indices: []uint32{idx[len(idx)-1], idx[0]}})
		}
	}
	return out
}

// convertHierarchy builds the node tree of the default scene. Several root
// nodes are wrapped in a synthetic root.
func (c *converter) convertHierarchy() {
	roots := c.rootNodes()
	if len(roots) == 0 {
		c.scene.Flags |= Incomplete
		return
	}

	visited := make(map[int]bool)
	var nodes []*Node
	for _, r := range roots {
		if n := c.convertNode(r, visited); n != nil {
			nodes = append(nodes, n)
		}
	}

	switch len(nodes) {
	case 0:
		c.scene.Flags |= Incomplete
	case 1:
		c.scene.Root = nodes[0]
	default:
		c.scene.Root = &Node{Name: rootName, Children: nodes}
	}
}

func (c *converter) rootNodes() []int {
	if len(c.doc.Nodes) == 0 {
		return nil
	}
	if len(c.doc.Scenes) > 0 {
		s := 0
		if c.doc.Scene != nil && int(*c.doc.Scene) < len(c.doc.Scenes) {
			s = int(*c.doc.Scene)
		}
		roots := make([]int, 0, len(c.doc.Scenes[s].Nodes))
		for _, n := range c.doc.Scenes[s].Nodes {
			roots = append(roots, int(n))
		}
		return roots
	}
	return nil
}

func (c *converter) convertNode(i int, visited map[int]bool) *Node {
	if i < 0 || i >= len(c.doc.Nodes) || visited[i] {
		return nil
	}
	visited[i] = true

	gn := c.doc.Nodes[i]
	n := &Node{Name: gn.Name}
	if n.Name == "" {
		n.Name = "node_" + strconv.Itoa(i)
	}
	if gn.Mesh != nil {
		n.Meshes = append(n.Meshes, c.meshRefs[int(*gn.Mesh)]...)
	}
	for _, child := range gn.Children {
		if cn := c.convertNode(int(child), visited); cn != nil {
			n.Children = append(n.Children, cn)
		}
	}
	return n
}
