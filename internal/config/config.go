// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Shaders ShaderConfig  `yaml:"shaders"`
	Model   ModelConfig   `yaml:"model"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds fly camera tuning. Angles are in degrees.
type CameraConfig struct {
	Position         [3]float32 `yaml:"position"`
	Speed            float32    `yaml:"speed"`
	Sensitivity      float32    `yaml:"sensitivity"`
	Fov              float32    `yaml:"fov"`
	MaxFov           float32    `yaml:"max_fov"`
	SprintMultiplier float32    `yaml:"sprint_multiplier"`
}

// ShaderConfig holds the shader program sources.
type ShaderConfig struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
	// FailFast aborts startup when the program fails to build.
	FailFast bool `yaml:"fail_fast"`
	// Watch rebuilds the program when a source file changes.
	Watch bool `yaml:"watch"`
}

// ModelConfig holds the imported scene settings.
type ModelConfig struct {
	Path         string `yaml:"path"`
	FlipTextures bool   `yaml:"flip_textures"`
}

// RenderConfig holds per-frame pipeline settings.
type RenderConfig struct {
	ClearColor [4]float32 `yaml:"clear_color"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	Wireframe  bool       `yaml:"wireframe"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "glsandbox",
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Camera: CameraConfig{
			Position:         [3]float32{0, 0, 3},
			Speed:            1.0,
			Sensitivity:      0.1,
			Fov:              90,
			MaxFov:           90,
			SprintMultiplier: 2.0,
		},
		Shaders: ShaderConfig{
			Vertex:   "shaders/model.vert",
			Fragment: "shaders/model.frag",
			FailFast: true,
		},
		Model: ModelConfig{
			Path: "assets/backpack/backpack.glb",
		},
		Render: RenderConfig{
			ClearColor: [4]float32{0.1, 0.1, 0.1, 1.0},
			Near:       0.1,
			Far:        100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
