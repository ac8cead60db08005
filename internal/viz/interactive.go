package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/orrery/internal/body"
)

// picker is the body selection menu opened over the canvas.
type picker struct {
	names  []string
	info   []string
	cursor int
}

func newPicker(bodies []*body.Body, current string) *picker {
	p := &picker{
		names: make([]string, len(bodies)),
		info:  make([]string, len(bodies)),
	}
	for i, b := range bodies {
		p.names[i] = b.Name
		p.info[i] = b.Kind.String()
		if b.Parent != "" && b.Kind == body.Moon {
			p.info[i] = fmt.Sprintf("moon of %s", b.Parent)
		}
		if body.Key(b.Name) == body.Key(current) {
			p.cursor = i
		}
	}
	return p
}

// key applies one key press. It returns the chosen name and true when the
// menu closes; the name is empty when it was cancelled.
func (p *picker) key(k string) (string, bool) {
	switch k {
	case "esc", "q", "b":
		return "", true
	case "enter":
		if len(p.names) == 0 {
			return "", true
		}
		return p.names[p.cursor], true
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "home", "g":
		p.cursor = 0
	case "end", "G":
		p.cursor = max(len(p.names)-1, 0)
	}
	return "", false
}

func (p *picker) view(st styles) string {
	var s strings.Builder
	s.WriteString(st.header.Render("FLY TO") + "\n\n")
	for i, name := range p.names {
		line := fmt.Sprintf("%-10s %s", name, p.info[i])
		if i == p.cursor {
			s.WriteString(st.selected.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.UnsetWidth().Render(line) + "\n")
		}
	}
	s.WriteString("\n" + st.help.Render("↑↓ select  ENTER fly  ESC cancel"))
	return st.canvas.Render(s.String())
}
