package strategy

import (
	"time"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
	"github.com/san-kum/orrery/internal/ephem"
)

// Replay looks up positions in time-indexed kinematics. It is anchored at the
// time the kinematics were fetched for and ignores dt.
type Replay struct {
	k *ephem.Kinematics
}

func NewReplay(k *ephem.Kinematics) *Replay {
	return &Replay{k: k}
}

func (r *Replay) Name() string { return "replay" }

// Epoch is the time the kinematics were fetched for.
func (r *Replay) Epoch() time.Time { return r.k.Epoch }

// Covers reports whether every track covers t.
func (r *Replay) Covers(t time.Time) bool {
	for _, name := range r.k.Names() {
		if tr, _ := r.k.Track(name); !tr.Covers(t) {
			return false
		}
	}
	return true
}

func (r *Replay) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	names := r.k.Names()
	targets := make([]*body.Body, len(names))
	for i, name := range names {
		b, err := bodies.Get(name)
		if err != nil {
			return err
		}
		targets[i] = b
	}

	now := clk.Now()
	for i, name := range names {
		tr, _ := r.k.Track(name)
		targets[i].Position, targets[i].Velocity = tr.At(now)
	}
	return nil
}
