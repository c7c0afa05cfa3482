package gillespie

import "math"

// Event is the outcome of one Direct Method draw.
type Event struct {
	Reaction int
	Tau      float64
}

// Select picks the next reaction and the waiting time from the propensity
// vector a and two uniforms r1, r2 in (0,1).
//
// The waiting time is ln(1/r1)/a0. The reaction is the first index whose
// running sum strictly exceeds r2*a0; when none does, the last reaction is
// selected. Select returns ErrAbsorbing when a0 is zero.
func Select(a []float64, r1, r2 float64) (Event, error) {
	a0 := 0.0
	for _, v := range a {
		a0 += v
	}
	if len(a) == 0 || a0 == 0 {
		return Event{Reaction: NoReaction}, ErrAbsorbing
	}

	tau := math.Log(1/r1) / a0

	j := len(a) - 1
	target := r2 * a0
	sum := 0.0
	for i, v := range a {
		sum += v
		if sum > target {
			j = i
			break
		}
	}

	return Event{Reaction: j, Tau: tau}, nil
}
