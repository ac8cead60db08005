package strategy

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/integrators"
)

var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

func solarSystem(t *testing.T, at time.Time) *body.Map {
	t.Helper()
	src, err := ephem.NewBuiltinSource()
	if err != nil {
		t.Fatalf("NewBuiltinSource failed: %v", err)
	}
	bodies, err := src.LoadBodies(context.Background(), at)
	if err != nil {
		t.Fatalf("LoadBodies failed: %v", err)
	}
	m, err := body.NewMap(bodies)
	if err != nil {
		t.Fatalf("NewMap failed: %v", err)
	}
	return m
}

func positions(m *body.Map) map[string]r3.Vec {
	out := make(map[string]r3.Vec, m.Len())
	for _, b := range m.All() {
		out[b.Name] = b.Position
	}
	return out
}

func TestCompositeRunsInOrder(t *testing.T) {
	var calls []string
	record := func(name string) Strategy {
		return Func(func(*body.Map, float64, clock.Reader) error {
			calls = append(calls, name)
			return nil
		})
	}

	c := NewComposite(record("a"))
	c.Add(record("b"))
	c.Add(record("c"))
	if err := c.Apply(solarSystem(t, j2000), 1, clock.New(j2000)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := strings.Join(calls, ""); got != "abc" {
		t.Errorf("expected order abc, got %s", got)
	}
}

func TestCompositeStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	c := NewComposite(
		NewSpin(),
		Func(func(*body.Map, float64, clock.Reader) error { return boom }),
		Func(func(*body.Map, float64, clock.Reader) error { ran = true; return nil }),
	)
	err := c.Apply(solarSystem(t, j2000), 1, clock.New(j2000))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "strategy 1") {
		t.Errorf("expected the failing index in %q", err.Error())
	}
	if ran {
		t.Error("expected strategies after the failure to be skipped")
	}
}

func TestCompositeReplace(t *testing.T) {
	c := NewComposite(NewKepler(), NewSpin())
	if c.Len() != 2 {
		t.Fatalf("expected 2 strategies, got %d", c.Len())
	}
	c.Replace(NewSpin())
	if c.Len() != 1 || c.Names()[0] != "spin" {
		t.Errorf("expected only spin after replace, got %v", c.Names())
	}
	c.Replace()
	if c.Len() != 0 {
		t.Errorf("expected an empty composite, got %d", c.Len())
	}
}

func TestDisjointStrategiesCommute(t *testing.T) {
	later := j2000.Add(90 * 24 * time.Hour)
	clk := clock.New(later)

	a := solarSystem(t, j2000)
	b := solarSystem(t, j2000)

	earth, mars := NewKepler("Earth"), NewKepler("Mars")
	if err := NewComposite(earth, mars).Apply(a, 1, clk); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := NewComposite(mars, earth).Apply(b, 1, clk); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	pa, pb := positions(a), positions(b)
	for name, p := range pa {
		if pb[name] != p {
			t.Errorf("%s: expected identical positions, got %v and %v", name, p, pb[name])
		}
	}
	if pa["Earth"] == positions(solarSystem(t, j2000))["Earth"] {
		t.Error("expected earth to move")
	}
}

func TestKeplerTracksParent(t *testing.T) {
	m := solarSystem(t, j2000)
	clk := clock.New(j2000.Add(10 * 24 * time.Hour))
	if err := NewKepler().Apply(m, 0, clk); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	earth, _ := m.Get("earth")
	moon, _ := m.Get("moon")
	if d := r3.Norm(r3.Sub(moon.Position, earth.Position)); d < 3.5e8 || d > 4.1e8 {
		t.Errorf("expected the moon to stay near earth, got %e m", d)
	}

	if err := NewKepler("Pluto").Apply(m, 0, clk); !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRerunWithZeroDeltaIsStable(t *testing.T) {
	m := solarSystem(t, j2000)
	clk := clock.New(j2000.Add(time.Hour))
	k := NewKepler()
	_ = k.Apply(m, 0, clk)
	first := positions(m)
	_ = k.Apply(m, 0, clk)
	for name, p := range positions(m) {
		if first[name] != p {
			t.Errorf("%s: expected no change on rerun", name)
		}
	}

	g := NewGravity(m.All(), integrators.NewRK4())
	_ = g.Apply(m, 0, clk)
	for name, p := range positions(m) {
		if first[name] != p {
			t.Errorf("%s: expected gravity to ignore a zero delta", name)
		}
	}
}

func TestGravitySubsteps(t *testing.T) {
	g := NewGravity(nil, integrators.NewRK4())
	g.MaxStep = 60
	g.MaxSubsteps = 10
	tests := []struct {
		dt   float64
		want int
	}{
		{0, 0},
		{1, 1},
		{60, 1},
		{61, 2},
		{-120, 2},
		{1e6, 10},
	}
	for _, tt := range tests {
		if got := g.Substeps(tt.dt); got != tt.want {
			t.Errorf("Substeps(%f): expected %d, got %d", tt.dt, tt.want, got)
		}
	}
}

func TestGravityAdvancesOrbit(t *testing.T) {
	m := solarSystem(t, j2000)
	sun, _ := m.Get("sun")
	earth, _ := m.Get("earth")
	g := NewGravity([]*body.Body{sun, earth}, integrators.NewLeapfrog())

	e0, err := g.Energy(m)
	if err != nil {
		t.Fatalf("Energy failed: %v", err)
	}
	start := earth.Position
	clk := clock.New(j2000)
	for i := 0; i < 24; i++ {
		if err := g.Apply(m, 3600, clk); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}

	moved := r3.Norm(r3.Sub(earth.Position, start))
	if moved < 2.4e9 || moved > 2.7e9 {
		t.Errorf("expected earth to travel about 2.6e9 m in a day, got %e", moved)
	}
	e1, _ := g.Energy(m)
	if drift := math.Abs((e1 - e0) / e0); drift > 1e-5 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestGravityMissingBodyLeavesStateUntouched(t *testing.T) {
	m := solarSystem(t, j2000)
	before := positions(m)
	ghost := &body.Body{Name: "Ghost", Mass: 1}
	g := NewGravity(append(append([]*body.Body(nil), m.All()...), ghost), integrators.NewRK4())
	if err := g.Apply(m, 60, clock.New(j2000)); !errors.Is(err, dynamo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for name, p := range positions(m) {
		if before[name] != p {
			t.Errorf("%s: expected no mutation on failure", name)
		}
	}
}

func TestReplay(t *testing.T) {
	src, _ := ephem.NewBuiltinSource()
	src.Window = 24 * time.Hour
	k, err := src.LoadKinematicsAtTime(context.Background(), []string{"Mars"}, j2000)
	if err != nil {
		t.Fatalf("LoadKinematicsAtTime failed: %v", err)
	}
	r := NewReplay(k)
	if !r.Epoch().Equal(j2000) || !r.Covers(j2000.Add(time.Hour)) || r.Covers(j2000.Add(48*time.Hour)) {
		t.Error("unexpected replay coverage")
	}

	m := solarSystem(t, j2000.AddDate(-1, 0, 0))
	if err := r.Apply(m, 0, clock.New(j2000)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	mars, _ := m.Get("mars")
	want, _ := k.Track("mars")
	if d := r3.Norm(r3.Sub(mars.Position, want.Samples[4].Position)); d > 1 {
		t.Errorf("expected mars at its J2000 sample, off by %f m", d)
	}

	bad := NewReplay(ephem.NewKinematics(j2000, &ephem.Track{Body: "Vulcan"}))
	if err := bad.Apply(m, 0, clock.New(j2000)); !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSpin(t *testing.T) {
	m, _ := body.NewMap([]*body.Body{
		{Name: "A", RotationPeriod: 4 * 3600},
		{Name: "B", RotationPeriod: -4 * 3600},
		{Name: "C"},
	})
	clk := clock.New(j2000.Add(time.Hour))
	if err := NewSpin().Apply(m, 0, clk); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	a, _ := m.Get("a")
	b, _ := m.Get("b")
	c, _ := m.Get("c")
	if math.Abs(a.Spin-math.Pi/2) > 1e-6 {
		t.Errorf("expected a quarter turn, got %f", a.Spin)
	}
	if math.Abs(b.Spin-3*math.Pi/2) > 1e-6 {
		t.Errorf("expected a retrograde quarter turn, got %f", b.Spin)
	}
	if c.Spin != 0 {
		t.Errorf("expected no spin without a period, got %f", c.Spin)
	}
}
