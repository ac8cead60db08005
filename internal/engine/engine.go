// Package engine drives the simulation one frame at a time: it advances the
// clock, runs the update strategies, moves the camera and hands the result to
// a renderer. Requests from the UI may arrive on any goroutine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/logging"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/strategy"
)

// Engine owns the bodies, the clock, the strategies and the camera. All of it
// is touched only under mu, so a frame always sees a consistent scene.
type Engine struct {
	mu sync.Mutex

	source    ephem.Source
	bodies    *body.Map
	clock     *clock.Clock
	composite *strategy.Composite
	spin      *strategy.Spin
	targeting *camera.Targeting
	controls  *camera.OrbitControls
	renderer  Renderer
	observers []Observer

	log     logging.Logger
	metrics *metrics.FrameCollector

	running      bool
	frame        uint64
	jumpSeq      uint64
	jumpFailures int
}

// New loads the initial bodies from opts.Source and sets up the scene at
// opts.Start.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: no data source", dynamo.ErrInvalidInput)
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().UTC()
	}
	if opts.Camera == (camera.Config{}) {
		opts.Camera = camera.DefaultConfig()
	}
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}

	list, err := opts.Source.LoadBodies(ctx, opts.Start)
	if err != nil {
		return nil, fmt.Errorf("load bodies: %w", err)
	}
	bodies, err := body.NewMap(list)
	if err != nil {
		return nil, err
	}
	if bodies.Len() == 0 {
		return nil, fmt.Errorf("%w: data source returned no bodies", dynamo.ErrInvalidInput)
	}

	target := bodies.All()[0]
	if opts.Target != "" {
		if target, err = bodies.Get(opts.Target); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
	}
	reference := target
	if opts.Reference != "" {
		if reference, err = bodies.Get(opts.Reference); err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
	}

	clk := clock.New(opts.Start)
	if err := clk.SetScale(opts.TimeScale); err != nil {
		return nil, err
	}
	clk.EnablePublisher(opts.PublishTime)

	targeting, err := camera.NewTargeting(target, reference, opts.Camera)
	if err != nil {
		return nil, err
	}

	items := opts.Strategies
	var spin *strategy.Spin
	if len(items) == 0 {
		if items, spin, err = buildStrategies(ctx, opts.Physics, opts.Source, bodies, opts.Start); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		source:    opts.Source,
		bodies:    bodies,
		clock:     clk,
		composite: strategy.NewComposite(items...),
		spin:      spin,
		targeting: targeting,
		controls:  camera.NewOrbitControls(),
		renderer:  opts.Renderer,
		log:       opts.Logger.With(logging.String("component", "engine")),
		metrics:   opts.Metrics,
	}

	if err := e.settle(); err != nil {
		return nil, fmt.Errorf("initial update: %w", err)
	}
	if opts.View != nil {
		if err := targeting.SetView(opts.View.Position, opts.View.LookAt); err != nil {
			return nil, err
		}
	}
	if loc := opts.Location; loc != nil {
		host := loc.Body
		if host == "" {
			host = reference.Name
		}
		if err := e.setLocation(host, *loc); err != nil {
			return nil, err
		}
	}
	if err := targeting.SetMode(opts.Mode); err != nil {
		return nil, err
	}
	targeting.Follow()

	if b, ok := opts.Renderer.(Binder); ok {
		b.Bind(bodies)
	}
	e.metrics.SetBodies(bodies.Len())
	e.metrics.SetClock(clk.JD(), clk.Scale())
	e.log.Info(ctx, "engine ready",
		logging.Int("bodies", bodies.Len()),
		logging.String("target", target.Name),
		logging.String("mode", opts.Mode.String()),
		logging.Any("strategies", e.composite.Names()),
	)
	return e, nil
}

// Start marks the session running; frames are refused until then.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		e.running = true
		e.log.Info(context.Background(), "engine started", logging.String("time", e.clock.Now().Format(time.RFC3339)))
	}
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.running = false
		e.log.Info(context.Background(), "engine stopped", logging.Uint64("frames", e.frame))
	}
}

// Frame runs one frame: clock, strategies, orbit controls, camera follow,
// transition tick, then render. A failing update phase aborts the rest of the
// update and is returned as a *dynamo.FrameError; the frame still renders and
// the next call runs normally.
func (e *Engine) Frame(realDelta float64) error {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return fmt.Errorf("%w: engine not started", dynamo.ErrInvalidState)
	}
	e.frame++

	ferr := e.update(realDelta)
	if rerr := e.guard(dynamo.PhaseRender, e.render); rerr != nil {
		if ferr == nil {
			ferr = rerr
		} else {
			e.log.Warn(context.Background(), "render failed", logging.Uint64("frame", e.frame), logging.Err(rerr.Wrapped))
		}
	}

	if ferr == nil {
		e.metrics.ObserveFrame(time.Since(start), "")
		return nil
	}
	e.metrics.ObserveFrame(time.Since(start), string(ferr.Phase))
	e.log.Warn(context.Background(), "frame update failed",
		logging.Uint64("frame", e.frame),
		logging.String("phase", string(ferr.Phase)),
		logging.Err(ferr.Wrapped),
	)
	return ferr
}

func (e *Engine) update(realDelta float64) *dynamo.FrameError {
	var simDelta float64
	if ferr := e.guard(dynamo.PhaseClock, func() (err error) {
		simDelta, err = e.clock.Advance(realDelta)
		return err
	}); ferr != nil {
		return ferr
	}
	if ferr := e.guard(dynamo.PhaseStrategy, func() error {
		return e.composite.Apply(e.bodies, simDelta, e.clock)
	}); ferr != nil {
		return ferr
	}
	if ferr := e.guard(dynamo.PhaseControls, func() error {
		e.targeting.ApplyControls(e.controls)
		return nil
	}); ferr != nil {
		return ferr
	}
	if ferr := e.guard(dynamo.PhaseCamera, func() error {
		if e.targeting.InputEnabled() {
			e.targeting.Follow()
		}
		prev := e.targeting.Target()
		if e.targeting.Tick(realDelta) {
			e.committed(prev)
		}
		return nil
	}); ferr != nil {
		return ferr
	}
	if ferr := e.guard(dynamo.PhaseObserve, func() error {
		now := e.clock.Now()
		for _, o := range e.observers {
			o.OnFrame(e.bodies, now)
		}
		return nil
	}); ferr != nil {
		return ferr
	}
	e.metrics.SetClock(e.clock.JD(), e.clock.Scale())
	return nil
}

// guard runs fn, converting an error or a panic into a FrameError for phase.
func (e *Engine) guard(phase dynamo.Phase, fn func() error) (ferr *dynamo.FrameError) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &dynamo.FrameError{Frame: e.frame, Phase: phase, Wrapped: dynamo.PanicError{Value: r}}
		}
	}()
	if err := fn(); err != nil {
		return &dynamo.FrameError{Frame: e.frame, Phase: phase, Wrapped: err}
	}
	return nil
}

func (e *Engine) render() error {
	v := e.targeting.View()
	e.renderer.SetCameraPosition(v.Position)
	e.renderer.SetCameraUp(v.Up)
	e.renderer.SetLookAt(v.LookAt)
	e.renderer.SetNear(v.Near)
	return e.renderer.Render()
}

func (e *Engine) committed(prev *body.Body) {
	ctx := context.Background()
	cur := e.targeting.Target()
	e.log.Debug(ctx, "transition complete", logging.String("target", cur.Name))
	if cur != prev {
		e.metrics.TargetChanged()
		e.log.Info(ctx, "target committed",
			logging.String("target", cur.Name),
			logging.String("previous", prev.Name),
		)
	}
}

// Run drives frames at fps until ctx is done.
func (e *Engine) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("%w: fps %d", dynamo.ErrInvalidInput, fps)
	}
	e.Start()
	defer e.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	timer := clock.StartTimer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// failures are logged by Frame and must not stop the loop
			_ = e.Frame(timer.Delta())
		}
	}
}
