package enrichment

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooFewSamples is returned by the t-test when either sample has fewer
// than two values and the pooled variance is undefined.
var ErrTooFewSamples = errors.New("each sample needs at least 2 values")

// TTest is the outcome of a one-tailed pooled-variance two-sample t-test.
type TTest struct {
	T      float64 `json:"t"`
	DF     float64 `json:"df"`
	PValue float64 `json:"p_value"`
}

// GreaterTTest tests whether the mean of a is greater than the mean of b,
// assuming equal variances (Student's test, not Welch's).
//
// The p-value is the upper tail of Student's t with n1+n2-2 degrees of
// freedom at the observed statistic, so a difference in the wrong direction
// yields p > 0.5 rather than a small two-sided value.
//
// When both samples have zero variance the statistic is infinite or
// undefined; the result is then p = 0 if mean(a) > mean(b) and p = 1
// otherwise.
func GreaterTTest(a, b []float64) (TTest, error) {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return TTest{}, ErrTooFewSamples
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	df := float64(n1 + n2 - 2)

	pooled := (float64(n1-1)*varA + float64(n2-1)*varB) / df
	se := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))

	if se == 0 {
		switch {
		case meanA > meanB:
			return TTest{T: math.Inf(1), DF: df, PValue: 0}, nil
		case meanA < meanB:
			return TTest{T: math.Inf(-1), DF: df, PValue: 1}, nil
		default:
			return TTest{T: 0, DF: df, PValue: 1}, nil
		}
	}

	t := (meanA - meanB) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return TTest{T: t, DF: df, PValue: dist.Survival(t)}, nil
}

// Median returns the middle value of x, averaging the two middle values when
// len(x) is even. x is not modified. The median of an empty sample is NaN.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
