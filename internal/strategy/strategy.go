// Package strategy holds the interchangeable position-update strategies and
// the composite that runs them once per frame.
package strategy

import (
	"fmt"
	"sync"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/clock"
)

// Strategy mutates body state in place for one frame. Implementations must be
// safe to re-run with dt == 0 and should only write the bodies they own.
type Strategy interface {
	Apply(bodies *body.Map, dt float64, clk clock.Reader) error
}

// Named is implemented by strategies that want a readable name in logs and
// errors.
type Named interface {
	Name() string
}

// Func adapts a plain function to Strategy.
type Func func(bodies *body.Map, dt float64, clk clock.Reader) error

func (f Func) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	return f(bodies, dt, clk)
}

// NameOf returns the strategy's name or its type.
func NameOf(s Strategy) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// Composite runs an ordered list of strategies on the same delta and the same
// bodies. The list can be swapped from another goroutine; a frame sees either
// the old list or the new one, never a mix.
type Composite struct {
	mu    sync.RWMutex
	items []Strategy
}

func NewComposite(items ...Strategy) *Composite {
	return &Composite{items: append([]Strategy(nil), items...)}
}

// Add appends s to the end of the list.
func (c *Composite) Add(s Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]Strategy, len(c.items), len(c.items)+1)
	copy(next, c.items)
	c.items = append(next, s)
}

// Replace swaps the whole list in one step.
func (c *Composite) Replace(items ...Strategy) {
	next := append([]Strategy(nil), items...)
	c.mu.Lock()
	c.items = next
	c.mu.Unlock()
}

func (c *Composite) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the current list.
func (c *Composite) Items() []Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Strategy(nil), c.items...)
}

// Names lists the current strategies in order.
func (c *Composite) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.items))
	for i, s := range c.items {
		names[i] = NameOf(s)
	}
	return names
}

// Apply runs every strategy in order and stops at the first error.
func (c *Composite) Apply(bodies *body.Map, dt float64, clk clock.Reader) error {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	for i, s := range items {
		if err := s.Apply(bodies, dt, clk); err != nil {
			return fmt.Errorf("strategy %d (%s): %w", i, NameOf(s), err)
		}
	}
	return nil
}
