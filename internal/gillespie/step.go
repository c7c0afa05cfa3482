package gillespie

// Source produces independent uniform values in (0,1).
type Source interface {
	Float64() float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

// Step performs one Direct Method step on sys: propensities are computed into
// buf, r1 and r2 are drawn from src in that order, and the selected reaction
// is applied at sys.Time()+tau.
//
// In the absorbing state Step returns ErrAbsorbing and sys is unchanged.
func Step(sys *System, src Source, buf []float64) (Event, error) {
	a := Propensities(sys, buf)
	r1 := src.Float64()
	r2 := src.Float64()

	ev, err := Select(a, r1, r2)
	if err != nil {
		return ev, err
	}
	if err := Apply(sys, sys.clock+ev.Tau, ev.Reaction); err != nil {
		return ev, err
	}
	return ev, nil
}
