package metrics

import (
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

func newMap(t *testing.T, bodies ...*body.Body) *body.Map {
	t.Helper()
	m, err := body.NewMap(bodies)
	if err != nil {
		t.Fatalf("NewMap failed: %v", err)
	}
	return m
}

func TestFrameCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewFrameCollector(reg)
	if err != nil {
		t.Fatalf("NewFrameCollector: %v", err)
	}

	c.ObserveFrame(2*time.Millisecond, "")
	c.ObserveFrame(3*time.Millisecond, "strategy")
	c.Jump(nil)
	c.Jump(errors.New("offline"))
	c.Jump(errors.New("offline"))
	c.SetClock(2451545, 3600)
	c.TransitionStarted()
	c.TargetChanged()

	if got := testutil.ToFloat64(c.Frames); got != 2 {
		t.Errorf("expected 2 frames, got %v", got)
	}
	if got := testutil.ToFloat64(c.FrameFailures.WithLabelValues("strategy")); got != 1 {
		t.Errorf("expected 1 strategy failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.Jumps.WithLabelValues("failed")); got != 2 {
		t.Errorf("expected 2 failed jumps, got %v", got)
	}
	if got := testutil.ToFloat64(c.TimeScale); got != 3600 {
		t.Errorf("expected scale 3600, got %v", got)
	}
	if got := testutil.CollectAndCount(c.FrameDurations); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestFrameCollectorReRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewFrameCollector(reg)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	b, err := NewFrameCollector(reg)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	a.TargetChanged()
	if got := testutil.ToFloat64(b.TargetChanges); got != 1 {
		t.Errorf("expected shared counter, got %v", got)
	}
}

func TestFrameCollectorNilSafe(t *testing.T) {
	var c *FrameCollector
	c.ObserveFrame(time.Millisecond, "camera")
	c.SetClock(0, 0)
	c.Jump(nil)
	c.SetEnergyDrift(1)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := NewFrameCollector(reg)
	c.SetBodies(10)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "orrery_bodies 10") {
		t.Errorf("expected orrery_bodies in output, got %q", rec.Body.String())
	}
}

func TestEnergyDrift(t *testing.T) {
	m := newMap(t, &body.Body{Name: "A"})
	values := []float64{-100, -101, -99.5, -100}
	i := 0
	reg := prometheus.NewRegistry()
	sink, _ := NewFrameCollector(reg)
	d := NewEnergyDrift(func(*body.Map) (float64, error) {
		v := values[i]
		i++
		return v, nil
	}, sink)

	for range values {
		d.OnFrame(m, time.Time{})
	}
	if math.Abs(d.Value()-0.01) > 1e-12 {
		t.Errorf("expected drift 0.01, got %f", d.Value())
	}
	if d.Current() != -100 {
		t.Errorf("expected current -100, got %f", d.Current())
	}
	if got := testutil.ToFloat64(sink.EnergyDrift); got != d.Value() {
		t.Errorf("expected gauge %f, got %f", d.Value(), got)
	}

	d.Reset()
	if d.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDriftSkipsErrors(t *testing.T) {
	m := newMap(t, &body.Body{Name: "A"})
	d := NewEnergyDrift(func(*body.Map) (float64, error) {
		return 0, errors.New("missing body")
	}, nil)
	d.OnFrame(m, time.Time{})
	if d.Value() != 0 {
		t.Errorf("expected zero drift, got %f", d.Value())
	}
}

func TestStability(t *testing.T) {
	a := &body.Body{Name: "A", Position: r3.Vec{X: 1e9}}
	m := newMap(t, a)
	s := NewStability(1e12)

	s.OnFrame(m, time.Time{})
	a.Position = r3.Vec{X: math.NaN()}
	s.OnFrame(m, time.Time{})
	a.Position = r3.Vec{X: 1e13}
	s.OnFrame(m, time.Time{})
	a.Position = r3.Vec{}
	s.OnFrame(m, time.Time{})

	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
	s.Reset()
	if s.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", s.Value())
	}
}
