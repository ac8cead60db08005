package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/ephem"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/strategy"
)

// buildStrategies turns the physics options into the initial strategy list.
// The spin strategy, when enabled, is returned separately so time jumps can
// keep it next to the replay.
func buildStrategies(ctx context.Context, p Physics, src ephem.Source, bodies *body.Map, start time.Time) ([]strategy.Strategy, *strategy.Spin, error) {
	var spin *strategy.Spin
	if p.Spin {
		spin = strategy.NewSpin()
	}

	var items []strategy.Strategy
	switch p.Strategy {
	case "", StrategyKepler:
		items = append(items, strategy.NewKepler())
	case StrategyGravity:
		name := p.Integrator
		if name == "" {
			name = "leapfrog"
		}
		integ, err := integrators.ByName(name)
		if err != nil {
			return nil, nil, err
		}
		g := strategy.NewGravity(bodies.All(), integ)
		if p.MaxStep > 0 {
			g.MaxStep = p.MaxStep
		}
		if p.MaxSubsteps > 0 {
			g.MaxSubsteps = p.MaxSubsteps
		}
		if p.Softening > 0 {
			g.System().Softening = p.Softening
		}
		items = append(items, g)
	case StrategyReplay:
		k, err := src.LoadKinematicsAtTime(ctx, bodies.Names(), start)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, strategy.NewReplay(k))
	default:
		return nil, nil, fmt.Errorf("%w: unknown strategy %q", dynamo.ErrInvalidInput, p.Strategy)
	}

	if spin != nil {
		items = append(items, spin)
	}
	return items, spin, nil
}
