package sensor

import "math"

// ecgShape returns a non-clinical ECG-like value for a position t in [0,1)
// of the cardiac cycle: slow baseline, P wave, QRS and T wave as gaussians.
// The R peak is wider than a real one so that a 10 Hz sampler still sees it.
func ecgShape(t float64) float64 {
	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)

	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.26, 0.02)
	r := 1.00 * gauss(t, 0.34, 0.06)
	s := -0.25 * gauss(t, 0.44, 0.025)
	tt := 0.25 * gauss(t, 0.65, 0.06)

	return baseline + p + q + r + s + tt
}

// pulseShape is a photoplethysmogram-like wave with a dicrotic bump
func pulseShape(t float64) float64 {
	return gauss(t, 0.45, 0.08) + 0.3*gauss(t, 0.72, 0.06)
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
