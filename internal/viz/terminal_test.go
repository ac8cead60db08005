package viz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/soniakeys/unit"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/ephem"
)

var t0 = time.Date(2024, time.March, 20, 3, 6, 0, 0, time.UTC)

func newEngine(t *testing.T, term *Terminal) *engine.Engine {
	t.Helper()
	src, err := ephem.NewBuiltinSource()
	if err != nil {
		t.Fatalf("NewBuiltinSource failed: %v", err)
	}
	opts := engine.DefaultOptions()
	opts.Source = src
	opts.Start = t0
	opts.Renderer = term
	e, err := engine.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	e.AddObserver(term)
	e.Start()
	return e
}

func TestTerminalRequiresBodies(t *testing.T) {
	term := NewTerminal(20, 8, 0)
	if err := term.Render(); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if term.Frames() != 0 {
		t.Errorf("expected no frames, got %d", term.Frames())
	}
}

func TestTerminalRendersTarget(t *testing.T) {
	term := NewTerminal(60, 16, unit.AngleFromDeg(60))
	term.SetTarget("Earth")
	e := newEngine(t, term)

	if err := e.Frame(1.0 / 30); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	frame := term.Frame()
	if !strings.Contains(frame, "[Earth]") {
		t.Errorf("expected Earth in view, got\n%s", frame)
	}
	if lines := strings.Split(frame, "\n"); len(lines) != 16 {
		t.Errorf("expected 16 rows, got %d", len(lines))
	}

	term.ToggleLabels()
	if err := e.Frame(1.0 / 30); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if strings.Contains(term.Frame(), "Earth") {
		t.Error("expected labels to be hidden")
	}
}

func TestTerminalResize(t *testing.T) {
	term := NewTerminal(60, 16, 0)
	e := newEngine(t, term)
	term.Resize(30, 5)
	if err := e.Frame(0); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	lines := strings.Split(term.Frame(), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	if n := len([]rune(lines[0])); n != 30 {
		t.Errorf("expected 30 columns, got %d", n)
	}
}
