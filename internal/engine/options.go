package engine

import (
	"time"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/strategy"
)

// Strategy names accepted in Physics.Strategy.
const (
	StrategyKepler  = "kepler"
	StrategyGravity = "gravity"
	StrategyReplay  = "replay"
)

// Options configures a new Engine. Start from DefaultOptions.
type Options struct {
	Source ephem.Source
	Start  time.Time

	// Target is the initial camera target; empty picks the first body.
	Target string
	// Reference supplies the default camera up vector; empty uses Target.
	Reference string
	Mode      camera.Mode
	TimeScale float64
	// PublishTime turns on the clock's time-changed notifications.
	PublishTime bool

	Camera camera.Config
	// View, when set, replaces the default initial camera placement.
	View     *View
	Location *Location
	Physics  Physics

	// Strategies, when non-empty, replaces the ones Physics would build.
	Strategies []strategy.Strategy

	Renderer Renderer
	Logger   logging.Logger
	Metrics  *metrics.FrameCollector
}

// View is an initial camera placement in scene units.
type View struct {
	Position r3.Vec
	LookAt   r3.Vec
}

// Location is a surface pin request. An empty Body means the reference body.
type Location struct {
	Body     string
	Lat, Lon unit.Angle
	// Altitude above the surface in meters.
	Altitude float64
}

// Physics selects and tunes the update strategies.
type Physics struct {
	Strategy   string
	Integrator string
	// MaxStep and MaxSubsteps bound gravity substeps; zero keeps the defaults.
	MaxStep     float64
	MaxSubsteps int
	// Softening in meters; zero keeps the default.
	Softening float64
	Spin      bool
}

func DefaultOptions() Options {
	return Options{
		Start:     time.Now().UTC(),
		Target:    "Earth",
		Mode:      camera.LookAt,
		TimeScale: 1,
		Camera:    camera.DefaultConfig(),
		Physics: Physics{
			Strategy:   StrategyKepler,
			Integrator: "leapfrog",
			Spin:       true,
		},
	}
}
