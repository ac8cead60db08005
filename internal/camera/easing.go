package camera

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(u float64) float64

func Linear(u float64) float64 { return u }

func QuinticIn(u float64) float64 {
	return u * u * u * u * u
}

func QuinticInOut(u float64) float64 {
	if u < 0.5 {
		return 16 * u * u * u * u * u
	}
	v := -2*u + 2
	return 1 - v*v*v*v*v/2
}

func clamp01(u float64) float64 {
	switch {
	case u < 0:
		return 0
	case u > 1:
		return 1
	}
	return u
}
