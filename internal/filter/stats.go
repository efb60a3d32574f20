// Package filter provides per-row statistics and the threshold filter chain.
package filter

// Stats holds the aggregate statistics of one gene row.
type Stats struct {
	// Total is the arithmetic sum of the row's counts.
	Total float64

	// ZeroCount is the number of counts exactly equal to zero.
	ZeroCount int

	// Expressed is the number of counts at or above the expression
	// threshold.
	Expressed int

	// Variance is the population variance of the counts (divisor n).
	// A single-sample row has variance 0.
	Variance float64
}

// Compute calculates the statistics for one row of counts. A count is
// expressed when it is >= expressionThreshold.
func Compute(counts []float64, expressionThreshold float64) Stats {
	var s Stats
	if len(counts) == 0 {
		return s
	}

	for _, v := range counts {
		s.Total += v
		if v == 0 {
			s.ZeroCount++
		}
		if v >= expressionThreshold {
			s.Expressed++
		}
	}

	// Identical values must report exactly zero variance; the mean of an
	// inexact float sum would otherwise leave a tiny positive residual.
	identical := true
	for _, v := range counts[1:] {
		if v != counts[0] {
			identical = false
			break
		}
	}
	if identical {
		return s
	}

	mean := s.Total / float64(len(counts))
	var sumSq float64
	for _, v := range counts {
		d := v - mean
		sumSq += d * d
	}
	s.Variance = sumSq / float64(len(counts))

	return s
}
