package main

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/glsandbox/cmd/viewer/shaders"
	"github.com/Faultbox/glsandbox/internal/config"
	"github.com/Faultbox/glsandbox/internal/engine/camera"
	"github.com/Faultbox/glsandbox/internal/engine/debug"
	"github.com/Faultbox/glsandbox/internal/engine/gpu/opengl"
	"github.com/Faultbox/glsandbox/internal/engine/input"
	"github.com/Faultbox/glsandbox/internal/engine/lighting"
	"github.com/Faultbox/glsandbox/internal/engine/model"
	"github.com/Faultbox/glsandbox/internal/engine/shader"
	"github.com/Faultbox/glsandbox/internal/engine/texture"
	"github.com/Faultbox/glsandbox/internal/engine/window"
	"github.com/Faultbox/glsandbox/internal/logger"
	"github.com/Faultbox/glsandbox/pkg/scene"
)

const shininess = 32

// app owns everything the render loop touches. All of it lives on the
// main thread.
type app struct {
	cfg *config.Config
	log *zap.Logger

	win   *window.Window
	dev   *opengl.Device
	input *input.Input

	prog    *shader.Program
	watcher *shader.Watcher
	model   *model.Model

	shots     *debug.Screenshots
	ctrl      *camera.Controller
	sun       lighting.DirLight
	lamps     *lighting.PointLightSet
	wireframe bool
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:       cfg,
		log:       logger.Named("viewer"),
		input:     input.New(),
		ctrl:      camera.NewController(camera.FromConfig(cfg.Camera)),
		lamps:     lighting.NewPointLightSet(),
		shots:     debug.NewScreenshots("screenshots", "glsandbox"),
		wireframe: cfg.Render.Wireframe,
	}

	var err error
	if a.win, err = window.New(cfg.Window); err != nil {
		return nil, err
	}
	if a.dev, err = opengl.New(); err != nil {
		a.win.Close()
		return nil, err
	}
	a.dev.SetClearColor(cfg.Render.ClearColor)
	a.dev.SetWireframe(a.wireframe)
	a.dev.Resize(a.win.Size())

	if a.prog, err = a.buildProgram(); err != nil {
		if cfg.Shaders.FailFast {
			a.Close()
			return nil, err
		}
		a.log.Warn("continuing without a shader program", zap.Error(err))
	}
	if cfg.Shaders.Watch && a.prog.Valid() && a.prog.VertexPath != "" {
		if a.watcher, err = shader.Watch(a.prog.VertexPath, a.prog.FragmentPath); err != nil {
			a.log.Warn("shader watching disabled", zap.Error(err))
		}
	}

	loader := texture.NewLoader(a.dev, texture.Options{
		FlipVertical: cfg.Model.FlipTextures,
		Mipmaps:      true,
		Repeat:       true,
	})
	importer := model.NewImporter(a.dev, scene.GLTFParser{}, loader)
	if a.model, err = importer.Import(cfg.Model.Path); err != nil {
		a.Close()
		return nil, err
	}
	a.model.Setup()
	lo, hi := a.model.Bounds()
	a.log.Info("model ready",
		zap.Float32s("bounds_min", lo[:]),
		zap.Float32s("bounds_max", hi[:]),
	)

	a.sun = lighting.DirLight{
		Direction: lighting.SunDirection(30, 60),
		Phong: lighting.Phong{
			Ambient:  mgl32.Vec3{0.1, 0.1, 0.1},
			Diffuse:  mgl32.Vec3{0.6, 0.6, 0.6},
			Specular: mgl32.Vec3{0.5, 0.5, 0.5},
		},
	}
	a.lamps.Add(lighting.PointLight{
		Attenuation: lighting.Range50,
		Phong: lighting.Phong{
			Ambient:  mgl32.Vec3{0.05, 0.05, 0.05},
			Diffuse:  mgl32.Vec3{1, 1, 1},
			Specular: mgl32.Vec3{1, 1, 1},
		},
	})

	a.win.CaptureMouse(true)
	return a, nil
}

// buildProgram compiles the configured sources. When they are not on disk
// the built-in sources are used instead.
func (a *app) buildProgram() (*shader.Program, error) {
	sc := a.cfg.Shaders
	prog, err := shader.New(a.dev, sc.Vertex, sc.Fragment)
	if err == nil {
		return prog, nil
	}
	if !errors.Is(err, shader.ErrIO) {
		return nil, err
	}

	a.log.Warn("shader sources not found, using built-in program",
		zap.String("vertex", sc.Vertex),
		zap.String("fragment", sc.Fragment),
	)
	prog, err = shader.FromSources(a.dev, shaders.ModelVertexShader, shaders.ModelFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("built-in program: %w", err)
	}
	// Nothing on disk to watch.
	prog.VertexPath, prog.FragmentPath = "", ""
	return prog, nil
}

// reload swaps in a freshly built program. The old one stays on failure.
func (a *app) reload() {
	vert, frag := a.cfg.Shaders.Vertex, a.cfg.Shaders.Fragment
	if a.prog.Valid() {
		if a.prog.VertexPath == "" {
			return
		}
		vert, frag = a.prog.VertexPath, a.prog.FragmentPath
	}
	next, err := shader.New(a.dev, vert, frag)
	if err != nil {
		a.log.Warn("shader reload failed, keeping current program", zap.Error(err))
		return
	}
	if a.prog.Valid() {
		a.prog.Delete()
	}
	a.prog = next
	a.log.Info("shader program reloaded", zap.Uint32("program", next.ID))
}

// Run is the frame loop. It returns when the window is closed.
func (a *app) Run() {
	last := window.Seconds()
	for {
		now := window.Seconds()
		dt := float32(now - last)
		last = now

		frame := a.input.Poll()
		if frame.Quit {
			return
		}
		a.handle(frame, dt)
		a.drainWatcher()

		a.dev.Begin()
		if a.prog.Valid() {
			a.draw(float32(now))
		}
		if frame.Screenshot {
			a.screenshot()
		}
		a.win.SwapBuffers()
	}
}

func (a *app) handle(frame input.Frame, dt float32) {
	if frame.Resized {
		a.dev.Resize(a.win.Size())
	}
	if frame.ToggleCapture {
		a.win.CaptureMouse(!a.win.MouseCaptured())
	}
	if frame.ToggleWireframe {
		a.wireframe = !a.wireframe
		a.dev.SetWireframe(a.wireframe)
	}
	if frame.ReloadShaders {
		a.reload()
	}

	if a.win.MouseCaptured() {
		a.ctrl.MouseDelta(frame.MouseDX, frame.MouseDY)
	}
	if frame.Scroll != 0 {
		a.ctrl.Scrolled(frame.Scroll)
	}
	a.ctrl.Update(a.input.Keys(), dt)
}

func (a *app) drainWatcher() {
	if a.watcher == nil {
		return
	}
	select {
	case path := <-a.watcher.Changed():
		a.log.Debug("rebuilding after edit", zap.String("path", path))
		a.reload()
	default:
	}
}

func (a *app) draw(t float32) {
	cam := a.ctrl.Camera
	p := a.prog
	p.Use()

	p.SetMat4("projection", cam.Projection(a.win.Aspect(), a.cfg.Render.Near, a.cfg.Render.Far))
	p.SetMat4("view", cam.ViewMatrix())
	p.SetMat4("model", mgl32.Ident4())
	p.SetVec3("viewPos", cam.Position)
	p.SetFloat("visibility", a.ctrl.Visibility)
	p.SetFloat("material.shininess", shininess)

	// The lamp circles the model.
	a.lamps.Lights[0].Position = lighting.Orbit(t, 5, 3)
	a.sun.Apply(p, "dirLight")
	a.lamps.Apply(p)
	p.SetInt("pointLightCount", int32(a.lamps.Len()))

	a.model.Draw(p)
}

func (a *app) screenshot() {
	w, h := a.win.Size()
	name, err := a.shots.SavePixels(a.dev.ReadPixels(w, h), w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", name))
}

// Close releases GPU objects before the context goes away.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.model != nil {
		a.model.Delete()
	}
	if a.prog.Valid() {
		a.prog.Delete()
	}
	if a.win != nil {
		a.win.Close()
	}
}
