package metrics

import (
	"math"
	"time"

	"github.com/san-kum/orrery/internal/body"
)

// EnergyFunc returns the total energy of the bodies it owns.
type EnergyFunc func(bodies *body.Map) (float64, error)

// EnergyDrift tracks the maximum relative energy drift since the first
// observed frame.
type EnergyDrift struct {
	name          string
	energy        EnergyFunc
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	sink          *FrameCollector
}

// NewEnergyDrift observes energy each frame and mirrors the drift into sink,
// which may be nil.
func NewEnergyDrift(energy EnergyFunc, sink *FrameCollector) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		energy: energy,
		sink:   sink,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnFrame(bodies *body.Map, _ time.Time) {
	energy, err := e.energy(bodies)
	if err != nil || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
	e.sink.SetEnergyDrift(e.maxDrift)
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current is the most recently observed total energy.
func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
