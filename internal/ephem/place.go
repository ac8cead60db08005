package ephem

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/orbit"
)

// Place sets every body's position and velocity at t from its elements,
// chaining satellites onto their parents. Bodies without elements and without
// a parent stay at the origin.
func Place(bodies []*body.Body, t time.Time) error {
	index := make(map[string]*body.Body, len(bodies))
	for _, b := range bodies {
		index[body.Key(b.Name)] = b
	}
	done := make(map[string]bool, len(bodies))
	for _, b := range bodies {
		if err := place(index, done, b, t, 0); err != nil {
			return err
		}
	}
	return nil
}

func place(index map[string]*body.Body, done map[string]bool, b *body.Body, t time.Time, depth int) error {
	k := body.Key(b.Name)
	if done[k] {
		return nil
	}
	if depth > len(index) {
		return fmt.Errorf("%w: parent cycle at %s", dynamo.ErrInvalidInput, b.Name)
	}

	var base, baseVel r3.Vec
	if b.Parent != "" {
		p, ok := index[body.Key(b.Parent)]
		if !ok {
			return fmt.Errorf("%w: parent %s of %s", dynamo.ErrNotFound, b.Parent, b.Name)
		}
		if err := place(index, done, p, t, depth+1); err != nil {
			return err
		}
		base, baseVel = p.Position, p.Velocity
	}

	if b.Elements != nil {
		pos, vel := orbit.State(b.Elements, t)
		b.Position = r3.Add(base, pos)
		b.Velocity = r3.Add(baseVel, vel)
	} else {
		b.Position, b.Velocity = base, baseVel
	}
	done[k] = true
	return nil
}
