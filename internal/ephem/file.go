package ephem

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/orbit"
)

var trackHeader = []string{"jd", "x", "y", "z", "vx", "vy", "vz"}

// FileSource reads a YAML catalog and per-body CSV kinematics from a
// directory. Each <name>.csv file holds rows of Julian day, ecliptic position
// in meters and velocity in meters per second.
type FileSource struct {
	Dir     string
	Catalog string
}

func NewFileSource(dir, catalog string) *FileSource {
	return &FileSource{Dir: dir, Catalog: catalog}
}

func (s *FileSource) bodies() ([]*body.Body, error) {
	if s.Catalog == "" {
		return Builtin()
	}
	return LoadCatalog(s.Catalog)
}

// TrackPath returns the CSV path for the named body.
func (s *FileSource) TrackPath(name string) string {
	return filepath.Join(s.Dir, body.Key(name)+".csv")
}

// LoadBodies places catalog bodies from elements, then overrides any body
// whose kinematics file covers date.
func (s *FileSource) LoadBodies(ctx context.Context, date time.Time) ([]*body.Body, error) {
	bodies, err := s.bodies()
	if err != nil {
		return nil, err
	}
	if err := Place(bodies, date); err != nil {
		return nil, err
	}
	for _, b := range bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := s.readTrack(b.Name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if tr.Covers(date) {
			b.Position, b.Velocity = tr.At(date)
		}
	}
	return bodies, nil
}

func (s *FileSource) LoadKinematicsAtTime(ctx context.Context, names []string, t time.Time) (*Kinematics, error) {
	if len(names) == 0 {
		bodies, err := s.bodies()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		for _, b := range bodies {
			names = append(names, b.Name)
		}
	}

	k := NewKinematics(t)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrFetchFailed, err)
		}
		tr, err := s.readTrack(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", dynamo.ErrFetchFailed, name, err)
		}
		if !tr.Covers(t) {
			start, end := tr.Span()
			return nil, fmt.Errorf("%w: %s covers %s to %s, not %s", dynamo.ErrFetchFailed,
				name, start.Format(time.RFC3339), end.Format(time.RFC3339), t.Format(time.RFC3339))
		}
		k.Add(tr)
	}
	return k, nil
}

func (s *FileSource) readTrack(name string) (*Track, error) {
	f, err := os.Open(s.TrackPath(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrack(f, name)
}

// SaveKinematics writes one CSV file per track into dir.
func SaveKinematics(dir string, k *Kinematics) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	fs := NewFileSource(dir, "")
	for _, name := range k.Names() {
		tr, _ := k.Track(name)
		f, err := os.Create(fs.TrackPath(name))
		if err != nil {
			return err
		}
		if err := WriteTrack(f, tr); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrack encodes tr as CSV in the ecliptic frame.
func WriteTrack(w io.Writer, tr *Track) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trackHeader); err != nil {
		return err
	}
	for _, s := range tr.Samples {
		p := orbit.SceneToEcliptic(s.Position)
		v := orbit.SceneToEcliptic(s.Velocity)
		row := []string{strconv.FormatFloat(s.JD, 'g', -1, 64)}
		for _, x := range []float64{p.X, p.Y, p.Z, v.X, v.Y, v.Z} {
			row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTrack decodes a CSV track written by WriteTrack. Rows must be in
// strictly increasing time order.
func ReadTrack(r io.Reader, name string) (*Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(trackHeader)
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", name, err)
	}
	if len(records) > 0 && records[0][0] == trackHeader[0] {
		records = records[1:]
	}

	tr := &Track{Body: name, Samples: make([]Sample, 0, len(records))}
	for i, rec := range records {
		var vals [7]float64
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil || !dynamo.IsFinite(v) {
				return nil, fmt.Errorf("%w: track %s row %d column %s", dynamo.ErrInvalidInput, name, i+1, trackHeader[j])
			}
			vals[j] = v
		}
		if n := len(tr.Samples); n > 0 && vals[0] <= tr.Samples[n-1].JD {
			return nil, fmt.Errorf("%w: track %s row %d is out of order", dynamo.ErrInvalidInput, name, i+1)
		}
		tr.Samples = append(tr.Samples, Sample{
			JD:       vals[0],
			Position: orbit.EclipticToScene(r3.Vec{X: vals[1], Y: vals[2], Z: vals[3]}),
			Velocity: orbit.EclipticToScene(r3.Vec{X: vals[4], Y: vals[5], Z: vals[6]}),
		})
	}
	if len(tr.Samples) == 0 {
		return nil, fmt.Errorf("%w: track %s is empty", dynamo.ErrInvalidInput, name)
	}
	return tr, nil
}
