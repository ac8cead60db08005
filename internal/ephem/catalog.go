package ephem

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/orbit"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Bodies []bodySpec `yaml:"bodies"`
}

type bodySpec struct {
	Name            string       `yaml:"name"`
	Kind            string       `yaml:"kind"`
	Parent          string       `yaml:"parent,omitempty"`
	RadiusKm        float64      `yaml:"radius_km"`
	MassKg          float64      `yaml:"mass_kg"`
	ObliquityDeg    float64      `yaml:"obliquity_deg"`
	AxisDirection   []float64    `yaml:"axis_direction,omitempty"`
	RotationPeriodH float64      `yaml:"rotation_period_h"`
	Elements        *elementSpec `yaml:"elements,omitempty"`
}

type elementValues struct {
	AU   float64 `yaml:"a_au"`
	Km   float64 `yaml:"a_km"`
	E    float64 `yaml:"e"`
	I    float64 `yaml:"i_deg"`
	Node float64 `yaml:"node_deg"`
	Peri float64 `yaml:"peri_deg"`
	L    float64 `yaml:"l_deg"`
}

type elementSpec struct {
	elementValues `yaml:",inline"`
	Rates         elementValues `yaml:"rates"`
}

func (v elementValues) semiMajorAxis() float64 {
	return v.AU*orbit.AU + v.Km*1000
}

// Builtin returns the embedded catalog of the Sun, the planets and the Moon.
// Positions are zero until placed.
func Builtin() ([]*body.Body, error) {
	return ParseCatalog(bytes.NewReader(builtinCatalog))
}

// LoadCatalog reads a YAML body catalog from path.
func LoadCatalog(path string) ([]*body.Body, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes a YAML body catalog. Parents must be declared before
// their satellites.
func ParseCatalog(r io.Reader) ([]*body.Body, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Bodies))
	out := make([]*body.Body, 0, len(file.Bodies))
	for _, spec := range file.Bodies {
		b, err := spec.build()
		if err != nil {
			return nil, err
		}
		if b.Parent != "" && !seen[body.Key(b.Parent)] {
			return nil, fmt.Errorf("%w: %s declared before its parent %s", dynamo.ErrInvalidInput, b.Name, b.Parent)
		}
		seen[body.Key(b.Name)] = true
		out = append(out, b)
	}

	if _, err := body.NewMap(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s bodySpec) build() (*body.Body, error) {
	kind, err := body.ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("body %s: %w", s.Name, err)
	}
	if s.RadiusKm <= 0 {
		return nil, fmt.Errorf("%w: body %s has radius %v", dynamo.ErrInvalidInput, s.Name, s.RadiusKm)
	}

	b := &body.Body{
		Name:           s.Name,
		Kind:           kind,
		Parent:         s.Parent,
		Radius:         s.RadiusKm * 1000,
		Mass:           s.MassKg,
		Obliquity:      unit.AngleFromDeg(s.ObliquityDeg),
		RotationPeriod: s.RotationPeriodH * 3600,
	}

	if len(s.AxisDirection) > 0 {
		if len(s.AxisDirection) != 3 {
			return nil, fmt.Errorf("%w: body %s axis_direction needs 3 components", dynamo.ErrInvalidInput, s.Name)
		}
		ax := orbit.EclipticToScene(r3.Vec{X: s.AxisDirection[0], Y: s.AxisDirection[1], Z: s.AxisDirection[2]})
		if r3.Norm2(ax) == 0 {
			return nil, fmt.Errorf("%w: body %s axis_direction is zero", dynamo.ErrInvalidInput, s.Name)
		}
		ax = r3.Unit(ax)
		b.AxisDirection = &ax
	}

	if el := s.Elements; el != nil {
		if s.Parent == "" {
			return nil, fmt.Errorf("%w: body %s has elements but no parent", dynamo.ErrInvalidInput, s.Name)
		}
		b.Elements = &body.Elements{
			SemiMajorAxis:             el.semiMajorAxis(),
			Eccentricity:              el.E,
			Inclination:               unit.AngleFromDeg(el.I),
			AscendingNode:             unit.AngleFromDeg(el.Node),
			LongitudeOfPerihelion:     unit.AngleFromDeg(el.Peri),
			MeanLongitude:             unit.AngleFromDeg(el.L),
			SemiMajorAxisRate:         el.Rates.semiMajorAxis(),
			EccentricityRate:          el.Rates.E,
			InclinationRate:           unit.AngleFromDeg(el.Rates.I),
			AscendingNodeRate:         unit.AngleFromDeg(el.Rates.Node),
			LongitudeOfPerihelionRate: unit.AngleFromDeg(el.Rates.Peri),
			MeanLongitudeRate:         unit.AngleFromDeg(el.Rates.L),
		}
		if b.Elements.SemiMajorAxis <= 0 || el.E < 0 || el.E >= 1 {
			return nil, fmt.Errorf("%w: body %s has no bound orbit", dynamo.ErrInvalidInput, s.Name)
		}
	}
	return b, nil
}
