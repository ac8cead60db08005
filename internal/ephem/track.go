package ephem

import (
	"sort"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/orbit"
)

// Sample is one ephemeris point in the scene frame.
type Sample struct {
	JD       float64
	Position r3.Vec
	Velocity r3.Vec
}

// Track is a time-ordered series of samples for one body.
type Track struct {
	Body    string
	Samples []Sample
}

// Span returns the first and last sample times.
func (tr *Track) Span() (start, end time.Time) {
	if len(tr.Samples) == 0 {
		return time.Time{}, time.Time{}
	}
	return julian.JDToTime(tr.Samples[0].JD), julian.JDToTime(tr.Samples[len(tr.Samples)-1].JD)
}

// Covers reports whether t falls inside the sampled span.
func (tr *Track) Covers(t time.Time) bool {
	if len(tr.Samples) == 0 {
		return false
	}
	jd := julian.TimeToJD(t)
	return jd >= tr.Samples[0].JD && jd <= tr.Samples[len(tr.Samples)-1].JD
}

// At interpolates the track at t with cubic Hermite splines over positions
// and velocities. Outside the span it extrapolates linearly from the nearest
// sample.
func (tr *Track) At(t time.Time) (pos, vel r3.Vec) {
	n := len(tr.Samples)
	if n == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	jd := julian.TimeToJD(t)

	first, last := tr.Samples[0], tr.Samples[n-1]
	if n == 1 || jd <= first.JD {
		return extrapolate(first, jd), first.Velocity
	}
	if jd >= last.JD {
		return extrapolate(last, jd), last.Velocity
	}

	i := sort.Search(n, func(i int) bool { return tr.Samples[i].JD > jd }) - 1
	a, b := tr.Samples[i], tr.Samples[i+1]
	h := (b.JD - a.JD) * orbit.SecondsPerDay
	u := (jd - a.JD) * orbit.SecondsPerDay / h
	return hermite(a, b, u, h)
}

func extrapolate(s Sample, jd float64) r3.Vec {
	return r3.Add(s.Position, r3.Scale((jd-s.JD)*orbit.SecondsPerDay, s.Velocity))
}

func hermite(a, b Sample, u, h float64) (pos, vel r3.Vec) {
	u2, u3 := u*u, u*u*u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	pos = r3.Add(
		r3.Add(r3.Scale(h00, a.Position), r3.Scale(h10*h, a.Velocity)),
		r3.Add(r3.Scale(h01, b.Position), r3.Scale(h11*h, b.Velocity)),
	)

	d00 := (6*u2 - 6*u) / h
	d10 := 3*u2 - 4*u + 1
	d01 := (-6*u2 + 6*u) / h
	d11 := 3*u2 - 2*u
	vel = r3.Add(
		r3.Add(r3.Scale(d00, a.Position), r3.Scale(d10, a.Velocity)),
		r3.Add(r3.Scale(d01, b.Position), r3.Scale(d11, b.Velocity)),
	)
	return pos, vel
}

// Kinematics is a set of tracks anchored at the time they were fetched for.
type Kinematics struct {
	Epoch  time.Time
	tracks map[string]*Track
	order  []string
}

func NewKinematics(epoch time.Time, tracks ...*Track) *Kinematics {
	k := &Kinematics{Epoch: epoch, tracks: make(map[string]*Track, len(tracks))}
	for _, tr := range tracks {
		k.Add(tr)
	}
	return k
}

// Add inserts or replaces the track for tr.Body.
func (k *Kinematics) Add(tr *Track) {
	key := body.Key(tr.Body)
	if _, ok := k.tracks[key]; !ok {
		k.order = append(k.order, tr.Body)
	}
	k.tracks[key] = tr
}

func (k *Kinematics) Track(name string) (*Track, bool) {
	tr, ok := k.tracks[body.Key(name)]
	return tr, ok
}

// Names lists body names in insertion order.
func (k *Kinematics) Names() []string {
	return append([]string(nil), k.order...)
}

func (k *Kinematics) Len() int { return len(k.order) }
