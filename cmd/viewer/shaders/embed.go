// Package shaders provides the viewer's built-in GLSL sources, used when
// no shader files are found on disk.
package shaders

import _ "embed"

// ModelVertexShader transforms model vertices and passes normals and UVs on.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader shades with one directional and up to four point lights.
//
//go:embed model.frag
var ModelFragmentShader string
