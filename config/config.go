// Package config loads the sandbox configuration from an optional YAML file.
package config

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/toxichemicals/GO/holy-boxes/camera"
	"github.com/toxichemicals/GO/holy-boxes/physics"
	"github.com/toxichemicals/GO/holy-boxes/sim"
)

type Window struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	VSync   bool   `yaml:"vsync"`
	Samples int    `yaml:"samples"`
}

type Render struct {
	// ShaderDir is searched for <program>.vert, <program>.frag, ... when
	// shaders are reloaded. Empty means the built-in sources are kept.
	ShaderDir  string  `yaml:"shader_dir"`
	ClearColor string  `yaml:"clear_color"` // hex, e.g. "#4d4d4d"
	FOV        float32 `yaml:"fov"`         // vertical, degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
}

// Background parses ClearColor.
func (r Render) Background() (mgl32.Vec3, error) {
	c, err := colorful.Hex(r.ClearColor)
	if err != nil {
		return mgl32.Vec3{}, errors.Wrapf(err, "clear_color %q", r.ClearColor)
	}
	return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// Projection returns the perspective matrix for a surface of the given size.
func (r Render) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(r.FOV), aspect, r.Near, r.Far)
}

type Store struct {
	Path string `yaml:"path"`
}

type Audio struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
}

// Config is the whole configuration file.
type Config struct {
	Window  Window         `yaml:"window"`
	Render  Render         `yaml:"render"`
	Camera  camera.Config  `yaml:"camera"`
	Physics physics.Config `yaml:"physics"`
	Loop    sim.Config     `yaml:"loop"`
	Store   Store          `yaml:"store"`
	Audio   Audio          `yaml:"audio"`
}

func Default() Config {
	return Config{
		Window: Window{
			Width:   800,
			Height:  600,
			Title:   "Holy Boxes",
			VSync:   true,
			Samples: 4,
		},
		Render: Render{
			ClearColor: "#4d4d4d",
			FOV:        45,
			Near:       1,
			Far:        1000,
		},
		Camera:  camera.DefaultConfig(),
		Physics: physics.DefaultConfig(),
		Loop:    sim.DefaultConfig(),
		Store:   Store{Path: "box.db"},
		Audio:   Audio{Enabled: true, SampleRate: 44100},
	}
}

// Load reads path on top of the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid %s", path)
	}
	return cfg, nil
}

// Validate rejects values the sandbox cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	case c.Render.FOV <= 0 || c.Render.FOV >= 180:
		return errors.Errorf("fov %v out of (0, 180)", c.Render.FOV)
	case c.Render.Near <= 0 || c.Render.Far <= c.Render.Near:
		return errors.Errorf("clip planes near=%v far=%v", c.Render.Near, c.Render.Far)
	case c.Physics.SubStep <= 0:
		return errors.Errorf("physics sub_step %v", c.Physics.SubStep)
	case c.Physics.MaxSubSteps <= 0:
		return errors.Errorf("physics max_sub_steps %d", c.Physics.MaxSubSteps)
	case c.Physics.SolverIterations <= 0:
		return errors.Errorf("physics solver_iterations %d", c.Physics.SolverIterations)
	case c.Loop.MaxFrameTime <= 0:
		return errors.Errorf("loop max_frame_time %v", c.Loop.MaxFrameTime)
	case c.Loop.ShootCooldown < 0:
		return errors.Errorf("loop shoot_cooldown %v", c.Loop.ShootCooldown)
	case c.Store.Path == "":
		return errors.New("store path is empty")
	case c.Audio.Enabled && c.Audio.SampleRate <= 0:
		return errors.Errorf("audio sample_rate %d", c.Audio.SampleRate)
	}
	if _, err := c.Render.Background(); err != nil {
		return err
	}
	return nil
}
