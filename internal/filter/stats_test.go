package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	s := Compute([]float64{10, 0, 0, 20}, 1)

	assert.Equal(t, 30.0, s.Total)
	assert.Equal(t, 2, s.ZeroCount)
	assert.Equal(t, 2, s.Expressed)
	assert.InDelta(t, 68.75, s.Variance, 1e-9) // mean 7.5, population variance
}

func TestCompute_IdenticalValues(t *testing.T) {
	s := Compute([]float64{5, 5, 5, 5}, 1)

	assert.Equal(t, 20.0, s.Total)
	assert.Equal(t, 0, s.ZeroCount)
	assert.Equal(t, 4, s.Expressed)
	assert.Equal(t, 0.0, s.Variance)
}

func TestCompute_SingleSample(t *testing.T) {
	s := Compute([]float64{7}, 1)

	assert.Equal(t, 7.0, s.Total)
	assert.Equal(t, 0.0, s.Variance)
}

func TestCompute_AllZero(t *testing.T) {
	s := Compute([]float64{0, 0, 0}, 1)

	assert.Equal(t, 0.0, s.Total)
	assert.Equal(t, 3, s.ZeroCount)
	assert.Equal(t, 0, s.Expressed)
	assert.Equal(t, 0.0, s.Variance)
}

func TestCompute_ExpressionThreshold(t *testing.T) {
	counts := []float64{0, 1, 4, 5, 10}

	assert.Equal(t, 4, Compute(counts, 1).Expressed)
	assert.Equal(t, 3, Compute(counts, 4).Expressed)
	assert.Equal(t, 1, Compute(counts, 6).Expressed)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, 1)
	assert.Equal(t, Stats{}, s)
}

func TestCompute_IdenticalFractionalValues(t *testing.T) {
	// 0.1 sums inexactly in binary; the variance must still be exactly 0
	s := Compute([]float64{0.1, 0.1, 0.1}, 1)

	assert.Equal(t, 0.0, s.Variance)

	s = Compute([]float64{2.2, 2.2, 2.2, 2.2, 2.2, 2.2, 2.2}, 1)
	assert.Equal(t, 0.0, s.Variance)
}

func TestCompute_FractionalCounts(t *testing.T) {
	s := Compute([]float64{1.5, 2.5}, 1)

	assert.Equal(t, 4.0, s.Total)
	assert.Equal(t, 0, s.ZeroCount)
	assert.InDelta(t, 0.25, s.Variance, 1e-9)
}
