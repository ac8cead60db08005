package camera

import (
	"fmt"
	"math"

	"github.com/san-kum/orrery/internal/orbit"
)

// DistanceFormatter renders scene-unit distances for display, switching from
// kilometers to astronomical units past a threshold.
type DistanceFormatter struct {
	// AUThreshold in kilometers; zero uses 0.1 AU.
	AUThreshold float64
}

func (f DistanceFormatter) Format(units float64) string {
	km := units * MetersPerUnit / 1000
	threshold := f.AUThreshold
	if threshold == 0 {
		threshold = 0.1 * orbit.AU / 1000
	}
	switch {
	case math.IsNaN(km):
		return "n/a"
	case math.Abs(km) >= threshold:
		return fmt.Sprintf("%.3f AU", km*1000/orbit.AU)
	case math.Abs(km) >= 1000:
		return fmt.Sprintf("%.0f km", km)
	default:
		return fmt.Sprintf("%.1f km", km)
	}
}
