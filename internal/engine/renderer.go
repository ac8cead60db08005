package engine

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
)

// Renderer is the narrow capability the engine drives once per frame. Render
// is opaque: the engine only pushes the camera and asks for a frame.
type Renderer interface {
	SetCameraPosition(p r3.Vec)
	SetCameraUp(up r3.Vec)
	SetLookAt(p r3.Vec)
	SetNear(near float64)
	Render() error
}

// Binder is implemented by renderers that draw the bodies themselves. Bind is
// called once with the engine's body map; the map may only be read from
// inside Render.
type Binder interface {
	Bind(bodies *body.Map)
}

// NopRenderer discards every frame.
type NopRenderer struct{}

func (NopRenderer) SetCameraPosition(r3.Vec) {}
func (NopRenderer) SetCameraUp(r3.Vec)       {}
func (NopRenderer) SetLookAt(r3.Vec)         {}
func (NopRenderer) SetNear(float64)          {}
func (NopRenderer) Render() error            { return nil }

// Observer is notified after every successful frame update, on the frame
// goroutine and with the engine locked.
type Observer interface {
	OnFrame(bodies *body.Map, t time.Time)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(bodies *body.Map, t time.Time)

func (f ObserverFunc) OnFrame(bodies *body.Map, t time.Time) { f(bodies, t) }
