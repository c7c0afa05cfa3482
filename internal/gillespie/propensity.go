package gillespie

// Binomial returns the number of unordered k-subsets of n identical
// molecules. It is zero when n < k and never fails.
func Binomial(n, k uint64) float64 {
	if k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	switch k {
	case 0:
		return 1
	case 1:
		return float64(n)
	}

	// After iteration i, c == C(n-k+i, i), so every partial product is exact
	// while it fits in a float64 mantissa.
	c := 1.0
	for i := uint64(1); i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return c
}

// Propensity is r.Rate times the product of C(count, quantity) over the
// reactant entries of r.
func Propensity(r Reaction, counts []uint64) float64 {
	a := r.Rate
	for _, re := range r.Reactants {
		a *= Binomial(counts[re.Species], re.Quantity)
	}
	return a
}

// Propensities computes the propensity of every reaction in order. dst is
// reused when it has enough capacity.
func Propensities(sys *System, dst []float64) []float64 {
	n := len(sys.reactions)
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for j, r := range sys.reactions {
		dst[j] = Propensity(r, sys.counts)
	}
	return dst
}
