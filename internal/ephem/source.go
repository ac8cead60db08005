// Package ephem supplies body snapshots and time-indexed kinematics to the
// simulation. Sources are read at session start and again after a time jump.
package ephem

import (
	"context"
	"time"

	"github.com/san-kum/orrery/internal/body"
)

// Source is the data-loading collaborator. Implementations may block on I/O
// and must honor ctx cancellation.
type Source interface {
	// LoadBodies returns a fresh snapshot of every body positioned at date.
	LoadBodies(ctx context.Context, date time.Time) ([]*body.Body, error)
	// LoadKinematicsAtTime returns tracks covering t for the named bodies.
	LoadKinematicsAtTime(ctx context.Context, names []string, t time.Time) (*Kinematics, error)
}
