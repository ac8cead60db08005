package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/logging"
)

const (
	DefaultTarget    = "Earth"
	DefaultTimeScale = 1.0
	DefaultFPS       = 30
	DefaultFOV       = 60.0
)

type Config struct {
	// Start is an RFC3339 timestamp; empty means now.
	Start     string  `yaml:"start,omitempty"`
	Target    string  `yaml:"target"`
	Reference string  `yaml:"reference,omitempty"`
	Mode      string  `yaml:"mode"`
	TimeScale float64 `yaml:"time_scale"`

	Location   *LocationConfig  `yaml:"location,omitempty"`
	Camera     CameraConfig     `yaml:"camera"`
	Transition TransitionConfig `yaml:"transition"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Data       DataConfig       `yaml:"data"`

	FPS         int       `yaml:"fps"`
	Log         LogConfig `yaml:"log"`
	MetricsAddr string    `yaml:"metrics_addr,omitempty"`
}

type LocationConfig struct {
	Body     string  `yaml:"body,omitempty"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Altitude float64 `yaml:"altitude,omitempty"`
}

// CameraConfig distances are in scene units (1 unit = 1 km).
type CameraConfig struct {
	Position          *[3]float64 `yaml:"position,omitempty"`
	LookAt            *[3]float64 `yaml:"look_at,omitempty"`
	FOV               float64     `yaml:"fov"`
	Near              float64     `yaml:"near"`
	SurfaceNear       float64     `yaml:"surface_near"`
	Far               float64     `yaml:"far"`
	MinDistanceMargin float64     `yaml:"min_distance_margin"`
}

type TransitionConfig struct {
	RotationPerHalfTurn float64 `yaml:"rotation_per_half_turn"`
	MinRotation         float64 `yaml:"min_rotation"`
	TransitSpeed        float64 `yaml:"transit_speed"`
	MinTranslation      float64 `yaml:"min_translation"`
}

type PhysicsConfig struct {
	Strategy    string  `yaml:"strategy"`
	Integrator  string  `yaml:"integrator"`
	MaxStep     float64 `yaml:"max_step,omitempty"`
	MaxSubsteps int     `yaml:"max_substeps,omitempty"`
	Softening   float64 `yaml:"softening,omitempty"`
	Spin        bool    `yaml:"spin"`
}

type DataConfig struct {
	// Catalog is a YAML body catalog; empty uses the built-in one.
	Catalog string `yaml:"catalog,omitempty"`
	// KinematicsDir holds per-body CSV tracks; empty samples the catalog.
	KinematicsDir string        `yaml:"kinematics_dir,omitempty"`
	JumpWindow    time.Duration `yaml:"jump_window"`
	JumpStep      time.Duration `yaml:"jump_step"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives logs from the live view, which owns the terminal.
	File string `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	cc := camera.DefaultConfig()
	return &Config{
		Target:    DefaultTarget,
		Mode:      camera.LookAt.String(),
		TimeScale: DefaultTimeScale,
		Camera: CameraConfig{
			FOV:               DefaultFOV,
			Near:              cc.Near,
			SurfaceNear:       cc.SurfaceNear,
			Far:               cc.Far,
			MinDistanceMargin: cc.MinDistanceMargin,
		},
		Transition: TransitionConfig{
			RotationPerHalfTurn: cc.RotationPerHalfTurn,
			MinRotation:         cc.MinRotation,
			TransitSpeed:        cc.TransitSpeed,
			MinTranslation:      cc.MinTranslation,
		},
		Physics: PhysicsConfig{
			Strategy:   engine.StrategyKepler,
			Integrator: "leapfrog",
			Spin:       true,
		},
		Data: DataConfig{
			JumpWindow: ephem.DefaultWindow,
			JumpStep:   ephem.DefaultStep,
		},
		FPS: DefaultFPS,
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first invalid setting, wrapped in dynamo.ErrInvalidInput.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", dynamo.ErrInvalidInput, fmt.Sprintf(format, args...))
	}

	if _, err := c.StartTime(); err != nil {
		return err
	}
	if _, err := camera.ParseMode(c.Mode); err != nil {
		return err
	}
	if !dynamo.IsFinite(c.TimeScale) {
		return bad("time_scale %v", c.TimeScale)
	}
	if c.FPS <= 0 {
		return bad("fps %d", c.FPS)
	}
	if l := c.Location; l != nil {
		if math.Abs(l.Lat) > 90 || !dynamo.IsFinite(l.Lon) {
			return bad("location %v, %v", l.Lat, l.Lon)
		}
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return bad("camera.fov %v", c.Camera.FOV)
	}
	if err := c.CameraConfig().Validate(); err != nil {
		return err
	}
	switch c.Physics.Strategy {
	case engine.StrategyKepler, engine.StrategyGravity, engine.StrategyReplay:
	default:
		return bad("physics.strategy %q", c.Physics.Strategy)
	}
	if _, err := integrators.ByName(c.Physics.Integrator); err != nil {
		return err
	}
	if c.Physics.MaxStep < 0 || c.Physics.MaxSubsteps < 0 || c.Physics.Softening < 0 {
		return bad("physics limits must not be negative")
	}
	if c.Data.JumpWindow < 0 || c.Data.JumpStep < 0 {
		return bad("data jump window %v step %v", c.Data.JumpWindow, c.Data.JumpStep)
	}
	return nil
}

// StartTime parses Start, returning the current time when it is empty.
func (c *Config) StartTime() (time.Time, error) {
	if strings.TrimSpace(c.Start) == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start %q: %w", dynamo.ErrInvalidInput, c.Start, err)
	}
	return t.UTC(), nil
}

// CameraConfig converts the camera and transition sections.
func (c *Config) CameraConfig() camera.Config {
	cc := camera.DefaultConfig()
	cc.Near = c.Camera.Near
	cc.SurfaceNear = c.Camera.SurfaceNear
	cc.Far = c.Camera.Far
	cc.MinDistanceMargin = c.Camera.MinDistanceMargin
	cc.RotationPerHalfTurn = c.Transition.RotationPerHalfTurn
	cc.MinRotation = c.Transition.MinRotation
	cc.TransitSpeed = c.Transition.TransitSpeed
	cc.MinTranslation = c.Transition.MinTranslation
	return cc
}

// Source builds the data collaborator described by the data section.
func (c *Config) Source() (ephem.Source, error) {
	if c.Data.KinematicsDir != "" {
		return ephem.NewFileSource(c.Data.KinematicsDir, c.Data.Catalog), nil
	}
	var src *ephem.KeplerSource
	if c.Data.Catalog != "" {
		catalog, err := ephem.LoadCatalog(c.Data.Catalog)
		if err != nil {
			return nil, err
		}
		src = ephem.NewKeplerSource(catalog)
	} else {
		builtin, err := ephem.NewBuiltinSource()
		if err != nil {
			return nil, err
		}
		src = builtin
	}
	if c.Data.JumpWindow > 0 {
		src.Window = c.Data.JumpWindow
	}
	if c.Data.JumpStep > 0 {
		src.Step = c.Data.JumpStep
	}
	return src, nil
}

// EngineOptions converts the whole config. Renderer, logger and metrics are
// left for the caller.
func (c *Config) EngineOptions() (engine.Options, error) {
	if err := c.Validate(); err != nil {
		return engine.Options{}, err
	}
	start, _ := c.StartTime()
	mode, _ := camera.ParseMode(c.Mode)
	src, err := c.Source()
	if err != nil {
		return engine.Options{}, err
	}

	opts := engine.DefaultOptions()
	opts.Source = src
	opts.Start = start
	opts.Target = c.Target
	opts.Reference = c.Reference
	opts.Mode = mode
	opts.TimeScale = c.TimeScale
	opts.Camera = c.CameraConfig()
	opts.Physics = engine.Physics{
		Strategy:    c.Physics.Strategy,
		Integrator:  c.Physics.Integrator,
		MaxStep:     c.Physics.MaxStep,
		MaxSubsteps: c.Physics.MaxSubsteps,
		Softening:   c.Physics.Softening,
		Spin:        c.Physics.Spin,
	}
	if l := c.Location; l != nil {
		opts.Location = &engine.Location{
			Body:     l.Body,
			Lat:      unit.AngleFromDeg(l.Lat),
			Lon:      unit.AngleFromDeg(l.Lon),
			Altitude: l.Altitude,
		}
	}
	if c.Camera.Position != nil && c.Camera.LookAt != nil {
		p, l := c.Camera.Position, c.Camera.LookAt
		opts.View = &engine.View{
			Position: r3.Vec{X: p[0], Y: p[1], Z: p[2]},
			LookAt:   r3.Vec{X: l[0], Y: l[1], Z: l[2]},
		}
	}
	return opts, nil
}

// LoggingConfig merges the log section with the environment.
func (c *Config) LoggingConfig() logging.Config {
	return logging.FromEnv(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
}
