package ephem

import (
	"context"
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
)

const (
	DefaultWindow = 30 * 24 * time.Hour
	DefaultStep   = 6 * time.Hour
)

// KeplerSource derives snapshots and kinematics analytically from catalog
// elements. It never touches the network or disk.
type KeplerSource struct {
	catalog []*body.Body
	// Window is the half-width of sampled kinematics around the requested time.
	Window time.Duration
	Step   time.Duration
}

func NewKeplerSource(catalog []*body.Body) *KeplerSource {
	return &KeplerSource{catalog: catalog, Window: DefaultWindow, Step: DefaultStep}
}

// NewBuiltinSource returns a KeplerSource over the embedded catalog.
func NewBuiltinSource() (*KeplerSource, error) {
	bodies, err := Builtin()
	if err != nil {
		return nil, err
	}
	return NewKeplerSource(bodies), nil
}

func (s *KeplerSource) LoadBodies(ctx context.Context, date time.Time) ([]*body.Body, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snapshot(date)
}

func (s *KeplerSource) snapshot(t time.Time) ([]*body.Body, error) {
	out := make([]*body.Body, len(s.catalog))
	for i, b := range s.catalog {
		out[i] = b.Clone()
	}
	if err := Place(out, t); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *KeplerSource) LoadKinematicsAtTime(ctx context.Context, names []string, t time.Time) (*Kinematics, error) {
	if s.Step <= 0 || s.Window < 0 {
		return nil, fmt.Errorf("%w: sampling step %v window %v", dynamo.ErrInvalidInput, s.Step, s.Window)
	}

	catalog, err := body.NewMap(s.catalog)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = catalog.Names()
	}
	tracks := make([]*Track, len(names))
	for i, name := range names {
		b, err := catalog.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		tracks[i] = &Track{Body: b.Name}
	}

	for at := t.Add(-s.Window); !at.After(t.Add(s.Window)); at = at.Add(s.Step) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		snap, err := s.snapshot(at)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		m, _ := body.NewMap(snap)
		jd := julian.TimeToJD(at)
		for _, tr := range tracks {
			b, _ := m.Lookup(tr.Body)
			tr.Samples = append(tr.Samples, Sample{JD: jd, Position: b.Position, Velocity: b.Velocity})
		}
	}
	return NewKinematics(t, tracks...), nil
}
