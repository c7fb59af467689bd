package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// splitRhat computes the split-Rhat convergence statistic per parameter:
// every chain is halved, and the between-half variance is compared with the
// within-half variance. Values near 1 indicate the chains mix.
func splitRhat(chains [][][]float64, dim int) []float64 {
	var halves [][][]float64
	for _, ch := range chains {
		n := len(ch)
		if n < 4 {
			return nil
		}
		halves = append(halves, ch[:n/2], ch[n/2:n/2*2])
	}

	out := make([]float64, dim)
	for p := 0; p < dim; p++ {
		means := make([]float64, len(halves))
		vars := make([]float64, len(halves))
		n := len(halves[0])
		for h, half := range halves {
			xs := make([]float64, len(half))
			for i, draw := range half {
				xs[i] = draw[p]
			}
			means[h] = stat.Mean(xs, nil)
			vars[h] = stat.Variance(xs, nil)
		}
		w := stat.Mean(vars, nil)
		b := float64(n) * stat.Variance(means, nil)
		if w <= 0 {
			// Degenerate (e.g. a parameter pinned to a constant): treat as
			// converged rather than dividing by zero.
			out[p] = 1
			continue
		}
		varPlus := (float64(n-1)/float64(n))*w + b/float64(n)
		out[p] = math.Sqrt(varPlus / w)
	}
	return out
}
