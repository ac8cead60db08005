package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FrameCollector bundles the Prometheus metrics of the frame driver. All
// methods are safe on a nil receiver.
type FrameCollector struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	FrameFailures  *prometheus.CounterVec
	FrameDurations prometheus.Histogram
	Transitions    prometheus.Counter
	TargetChanges  prometheus.Counter
	Jumps          *prometheus.CounterVec

	SimulatedTime prometheus.Gauge
	TimeScale     prometheus.Gauge
	Bodies        prometheus.Gauge
	EnergyDrift   prometheus.Gauge
}

// NewFrameCollector registers the frame metrics against reg, defaulting to the
// global registry when nil.
func NewFrameCollector(reg prometheus.Registerer) (*FrameCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &FrameCollector{gatherer: gatherer}
	var err error

	if c.Frames, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Frames driven by the engine.",
	}), "orrery_frames_total"); err != nil {
		return nil, err
	}
	if c.FrameFailures, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_frame_failures_total",
		Help: "Frames whose update aborted, labeled by the failing phase.",
	}, []string{"phase"}), "orrery_frame_failures_total"); err != nil {
		return nil, err
	}
	if c.FrameDurations, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_frame_duration_seconds",
		Help:    "Wall time spent in one frame update.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1, 0.25},
	}), "orrery_frame_duration_seconds"); err != nil {
		return nil, err
	}
	if c.Transitions, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_camera_transitions_total",
		Help: "Camera target transitions started.",
	}), "orrery_camera_transitions_total"); err != nil {
		return nil, err
	}
	if c.TargetChanges, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_target_changes_total",
		Help: "Committed camera target changes.",
	}), "orrery_target_changes_total"); err != nil {
		return nil, err
	}
	if c.Jumps, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_time_jumps_total",
		Help: "Time jumps, labeled by result (ok or failed).",
	}, []string{"result"}), "orrery_time_jumps_total"); err != nil {
		return nil, err
	}
	if c.SimulatedTime, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_simulated_time_jd",
		Help: "Current simulated time as a Julian day.",
	}), "orrery_simulated_time_jd"); err != nil {
		return nil, err
	}
	if c.TimeScale, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_time_scale",
		Help: "Simulated seconds per real second.",
	}), "orrery_time_scale"); err != nil {
		return nil, err
	}
	if c.Bodies, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_bodies",
		Help: "Bodies in the scene.",
	}), "orrery_bodies"); err != nil {
		return nil, err
	}
	if c.EnergyDrift, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_energy_drift",
		Help: "Maximum relative energy drift seen by the gravity strategy.",
	}), "orrery_energy_drift"); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a /metrics handler for the collector's registry.
func (c *FrameCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one frame. phase is empty for a frame that completed.
func (c *FrameCollector) ObserveFrame(d time.Duration, phase string) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDurations.Observe(d.Seconds())
	if phase != "" {
		c.FrameFailures.WithLabelValues(phase).Inc()
	}
}

func (c *FrameCollector) SetClock(jd, scale float64) {
	if c == nil {
		return
	}
	c.SimulatedTime.Set(jd)
	c.TimeScale.Set(scale)
}

func (c *FrameCollector) SetBodies(n int) {
	if c == nil {
		return
	}
	c.Bodies.Set(float64(n))
}

func (c *FrameCollector) TransitionStarted() {
	if c == nil {
		return
	}
	c.Transitions.Inc()
}

func (c *FrameCollector) TargetChanged() {
	if c == nil {
		return
	}
	c.TargetChanges.Inc()
}

// Jump records a time jump outcome.
func (c *FrameCollector) Jump(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.Jumps.WithLabelValues(result).Inc()
}

func (c *FrameCollector) SetEnergyDrift(v float64) {
	if c == nil {
		return
	}
	c.EnergyDrift.Set(v)
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
