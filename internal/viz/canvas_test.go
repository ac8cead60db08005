package viz

import (
	"math/bits"
	"strings"
	"testing"
)

func countDots(c *Canvas) int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if isBraille(r) {
				n += bits.OnesCount32(uint32(r - blank))
			}
		}
	}
	return n
}

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected 0x2801, got %#x", c.Grid[0][0])
	}
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2881 {
		t.Errorf("expected 0x2881, got %#x", c.Grid[0][0])
	}
	c.Unset(0, 0)
	if c.Grid[0][0] != 0x2880 {
		t.Errorf("expected 0x2880, got %#x", c.Grid[0][0])
	}
	c.Set(2, 0)
	if c.Grid[0][1] != 0x2801 {
		t.Errorf("expected second cell set, got %#x", c.Grid[0][1])
	}
}

func TestCanvasIgnoresOutOfBounds(t *testing.T) {
	c := NewCanvas(2, 2)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 8}, {100, 100}} {
		c.Set(p[0], p[1])
		c.Unset(p[0], p[1])
	}
	if n := countDots(c); n != 0 {
		t.Errorf("expected no dots, got %d", n)
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 0)
	if n := countDots(c); n != 8 {
		t.Errorf("expected 8 dots, got %d", n)
	}
	for col := 0; col < 4; col++ {
		if c.Grid[0][col] != 0x2809 {
			t.Errorf("cell %d: expected 0x2809, got %#x", col, c.Grid[0][col])
		}
	}

	c.Clear()
	c.DrawLine(0, 0, 7, 7)
	if n := countDots(c); n != 8 {
		t.Errorf("expected 8 diagonal dots, got %d", n)
	}
}

func TestDisc(t *testing.T) {
	tests := []struct {
		r, want int
	}{
		{0, 1},
		{1, 5},
		{2, 13},
	}
	for _, tt := range tests {
		c := NewCanvas(10, 5)
		c.Disc(10, 10, tt.r)
		if n := countDots(c); n != tt.want {
			t.Errorf("radius %d: expected %d dots, got %d", tt.r, tt.want, n)
		}
	}
}

func TestLabel(t *testing.T) {
	c := NewCanvas(6, 2)
	c.Label(4, 4, "Earth")
	if got := string(c.Grid[1][2:]); got != "Eart" {
		t.Errorf("expected label cut at the edge, got %q", got)
	}
	c.Set(4, 4)
	if c.Grid[1][2] != 'E' {
		t.Errorf("expected dots not to overwrite labels, got %q", c.Grid[1][2])
	}

	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
}
