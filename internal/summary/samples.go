// Package summary accumulates per-sample statistics across a filter run.
package summary

import "strconv"

// Summary metacount row names, in output order.
const (
	RowTotalCount      = "total_count"
	RowPassedCount     = "passed_count"
	RowTotalExpressed  = "total_expressed"
	RowPassedExpressed = "passed_expressed"
)

// SampleSet tracks per-sample aggregates over all gene rows seen in a run.
// Metacount rows do not contribute.
type SampleSet struct {
	names           []string
	totalCount      []float64
	passedCount     []float64
	totalExpressed  []int64
	passedExpressed []int64
}

// New creates a SampleSet for the given sample names.
func New(names []string) *SampleSet {
	return &SampleSet{
		names:           names,
		totalCount:      make([]float64, len(names)),
		passedCount:     make([]float64, len(names)),
		totalExpressed:  make([]int64, len(names)),
		passedExpressed: make([]int64, len(names)),
	}
}

// Names returns the sample names in column order.
func (s *SampleSet) Names() []string {
	return s.names
}

// Observe records a gene row's counts in the run-wide totals. A count is
// expressed when it is >= threshold.
func (s *SampleSet) Observe(counts []float64, threshold float64) {
	for i, v := range counts {
		s.totalCount[i] += v
		if v >= threshold {
			s.totalExpressed[i]++
		}
	}
}

// ObservePassed records the counts of a gene row that passed filtering.
func (s *SampleSet) ObservePassed(counts []float64, threshold float64) {
	for i, v := range counts {
		s.passedCount[i] += v
		if v >= threshold {
			s.passedExpressed[i]++
		}
	}
}

// TotalCount returns the per-sample sum over all gene rows.
func (s *SampleSet) TotalCount() []float64 { return s.totalCount }

// PassedCount returns the per-sample sum over passing gene rows.
func (s *SampleSet) PassedCount() []float64 { return s.passedCount }

// TotalExpressed returns the per-sample expressed-gene tally.
func (s *SampleSet) TotalExpressed() []int64 { return s.totalExpressed }

// PassedExpressed returns the per-sample expressed tally over passing rows.
func (s *SampleSet) PassedExpressed() []int64 { return s.passedExpressed }

// Row is one summary metacount row ready for output.
type Row struct {
	Name   string
	Values []string
}

// Summary returns the four aggregate rows in their fixed order:
// total_count, passed_count, total_expressed, passed_expressed.
func (s *SampleSet) Summary() []Row {
	return []Row{
		{Name: RowTotalCount, Values: formatFloats(s.totalCount)},
		{Name: RowPassedCount, Values: formatFloats(s.passedCount)},
		{Name: RowTotalExpressed, Values: formatInts(s.totalExpressed)},
		{Name: RowPassedExpressed, Values: formatInts(s.passedExpressed)},
	}
}

// formatFloats renders counts without a forced decimal point so integer
// count data stays integer-shaped in the output.
func formatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func formatInts(values []int64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}
