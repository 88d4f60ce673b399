// modeltool inspects scene files without opening a window: it runs the
// same importer as the viewer against an in-memory graphics device.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
	"github.com/Faultbox/glsandbox/internal/engine/model"
	"github.com/Faultbox/glsandbox/internal/engine/texture"
	"github.com/Faultbox/glsandbox/internal/logger"
	"github.com/Faultbox/glsandbox/pkg/scene"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	command, args := args[0], args[1:]
	switch command {
	case "info":
		return cmdInfo(args, out)
	case "tree":
		return cmdTree(args, out)
	case "textures", "tex":
		return cmdTextures(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `modeltool - scene file inspector

Usage:
  modeltool <command> [options] <file.gltf|file.glb>

Commands:
  info      Import the model and print mesh and texture totals
  tree      Print the node hierarchy with mesh references
  textures  List material textures and check that they decode

Options:
  -v        Log importer activity to stderr

Examples:
  modeltool info assets/backpack/backpack.glb
  modeltool tree -v assets/backpack/backpack.glb`)
}

// parseArgs handles the flags shared by every command and returns the
// model path.
func parseArgs(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	verbose := fs.Bool("v", false, "log importer activity")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s needs one model path", errUsage, name)
	}
	if *verbose {
		if err := logger.Init("debug", ""); err != nil {
			return "", err
		}
	}
	return fs.Arg(0), nil
}

func cmdInfo(args []string, out io.Writer) error {
	path, err := parseArgs("info", args)
	if err != nil {
		return err
	}

	dev := gpu.NewRecorder()
	loader := texture.NewLoader(dev, texture.DefaultOptions())
	m, err := model.NewImporter(dev, scene.GLTFParser{}, loader).Import(path)
	if err != nil {
		return err
	}
	defer m.Delete()
	m.Setup()

	byKind := make(map[string]int)
	for _, tex := range m.LoadedTextures() {
		byKind[tex.Kind]++
	}

	fmt.Fprintf(out, "Model:     %s\n", path)
	fmt.Fprintf(out, "Directory: %s\n", m.Directory)
	fmt.Fprintf(out, "Meshes:    %d\n", len(m.Meshes))
	fmt.Fprintf(out, "Vertices:  %d\n", m.VertexCount())
	fmt.Fprintf(out, "Triangles: %d\n", m.TriangleCount())
	lo, hi := m.Bounds()
	fmt.Fprintf(out, "Bounds:    (%g, %g, %g) - (%g, %g, %g)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	fmt.Fprintf(out, "Textures:  %d\n", len(m.LoadedTextures()))

	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-18s %d\n", k, byKind[k])
	}
	return nil
}

func cmdTree(args []string, out io.Writer) error {
	path, err := parseArgs("tree", args)
	if err != nil {
		return err
	}

	s, err := scene.GLTFParser{}.Parse(path, model.ImportFlags)
	if err != nil {
		return err
	}
	if s.Incomplete() {
		fmt.Fprintln(out, "(scene incomplete: no node hierarchy)")
		return nil
	}
	printNode(out, s, s.Root, 0)
	return nil
}

func printNode(out io.Writer, s *scene.Scene, n *scene.Node, depth int) {
	fmt.Fprintf(out, "%s%s", strings.Repeat("  ", depth), n.Name)
	for _, idx := range n.Meshes {
		m := s.Meshes[idx]
		fmt.Fprintf(out, " [%d %s: %d verts, %d faces]", idx, m.Name, len(m.Vertices), len(m.Faces))
	}
	fmt.Fprintln(out)
	for _, c := range n.Children {
		printNode(out, s, c, depth+1)
	}
}

func cmdTextures(args []string, out io.Writer) error {
	path, err := parseArgs("textures", args)
	if err != nil {
		return err
	}

	s, err := scene.GLTFParser{}.Parse(path, model.ImportFlags)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	missing := 0
	for i, mat := range s.Materials {
		fmt.Fprintf(out, "material %d %q\n", i, mat.Name)
		for _, kind := range []scene.TextureType{scene.TextureDiffuse, scene.TextureSpecular} {
			for _, rel := range mat.Textures[kind] {
				status := "ok"
				if err := checkTexture(s, dir, rel); err != nil {
					status = err.Error()
					missing++
				}
				fmt.Fprintf(out, "  %-18s %s (%s)\n", kind, rel, status)
			}
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d texture(s) failed to decode", missing)
	}
	return nil
}

func checkTexture(s *scene.Scene, dir, rel string) error {
	if img, ok := s.Embedded[rel]; ok {
		_, err := texture.DecodeBytes(img.Data, img.Ext)
		return err
	}
	_, err := texture.Decode(filepath.Join(dir, rel))
	return err
}
