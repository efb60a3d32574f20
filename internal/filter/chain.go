package filter

// Reason identifies which check rejected a gene.
type Reason string

// Rejection reasons, one per check in the chain.
const (
	ReasonMinCount     Reason = "below minimum count"
	ReasonMaxZeroCount Reason = "too many zero counts"
	ReasonMinExpressed Reason = "too few expressed samples"
	ReasonIdentical    Reason = "zero variance"
)

// Config holds the active filter thresholds. A nil threshold means the
// corresponding check never rejects.
type Config struct {
	// MinCount is an inclusive lower bound on the row total.
	MinCount *float64

	// MaxZeroCount is an inclusive upper bound on the number of zero counts.
	MaxZeroCount *int

	// MinExpressed is an inclusive lower bound on the number of expressed
	// samples.
	MinExpressed *int

	// FilterIdentical rejects rows whose counts are all identical
	// (population variance 0).
	FilterIdentical bool
}

// Predicate is one check of the filter chain. Fails reports whether the
// check rejects the row.
type Predicate struct {
	Reason Reason
	Fails  func(Stats) bool
}

// Chain returns the active checks in their fixed evaluation order:
// min-count, max-zerocount, min-expressed, filter-identical.
func (c Config) Chain() []Predicate {
	var chain []Predicate

	if c.MinCount != nil {
		min := *c.MinCount
		chain = append(chain, Predicate{
			Reason: ReasonMinCount,
			Fails:  func(s Stats) bool { return s.Total < min },
		})
	}
	if c.MaxZeroCount != nil {
		max := *c.MaxZeroCount
		chain = append(chain, Predicate{
			Reason: ReasonMaxZeroCount,
			Fails:  func(s Stats) bool { return s.ZeroCount > max },
		})
	}
	if c.MinExpressed != nil {
		min := *c.MinExpressed
		chain = append(chain, Predicate{
			Reason: ReasonMinExpressed,
			Fails:  func(s Stats) bool { return s.Expressed < min },
		})
	}
	if c.FilterIdentical {
		chain = append(chain, Predicate{
			Reason: ReasonIdentical,
			Fails:  func(s Stats) bool { return s.Variance <= 0 },
		})
	}

	return chain
}

// Evaluate runs the chain against the row statistics. The first failing
// check determines the reason and later checks are skipped. A row with no
// active checks always passes.
func (c Config) Evaluate(s Stats) (bool, Reason) {
	for _, p := range c.Chain() {
		if p.Fails(s) {
			return false, p.Reason
		}
	}
	return true, ""
}

// Active reports whether any check is configured.
func (c Config) Active() bool {
	return c.MinCount != nil || c.MaxZeroCount != nil || c.MinExpressed != nil || c.FilterIdentical
}
