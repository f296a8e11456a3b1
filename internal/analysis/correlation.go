package analysis

import (
	"math"
	"sort"

	apperrors "embalsescli/internal/errors"
	"embalsescli/pkg/contracts/domain"
)

// Correlate computes the correlation between two equally indexed series,
// optionally lagging the second one: with lag N, x at day t is paired with y
// at day t-N. A negative lag is a caller error. Pairs where either side is
// missing are skipped; fewer than two complete pairs fail with an
// insufficient-data error.
func Correlate(x, y []float64, lag int, method CorrelationMethod) (float64, int, error) {
	if lag < 0 {
		return 0, 0, apperrors.NewInvalidLagError(lag)
	}

	var xs, ys []float64
	for i := lag; i < len(x) && i-lag < len(y); i++ {
		xv, yv := x[i], y[i-lag]
		if domain.IsMissing(xv) || domain.IsMissing(yv) {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	if len(xs) < 2 {
		return 0, len(xs), apperrors.NewInsufficientDataError(
			"correlation needs at least two complete pairs", len(xs), 2)
	}

	switch method {
	case MethodSpearman:
		return spearman(xs, ys), len(xs), nil
	default:
		return pearson(xs, ys), len(xs), nil
	}
}

// pearson computes the product-moment coefficient. Both slices are complete
// and equally long.
func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// spearman is Pearson over the rank transforms, with ties getting the
// average of the ranks they span.
func spearman(xs, ys []float64) float64 {
	return pearson(ranks(xs), ranks(ys))
}

// ranks assigns 1-based fractional ranks.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranked := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Tied values share the average rank of positions i..j.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranked[idx[k]] = avg
		}
		i = j + 1
	}
	return ranked
}

// Matrix computes the pairwise correlation matrix over the given fields of
// one reservoir's series. Pairs without enough data hold NaN; the diagonal
// is exactly 1.
func Matrix(dataset *domain.Dataset, code string, fields []domain.Field, method CorrelationMethod) *CorrelationMatrix {
	series := make([][]float64, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		s := dataset.Series(code, f)
		series[i] = s.Values
		names[i] = string(f)
	}

	values := make([][]float64, len(fields))
	for i := range fields {
		values[i] = make([]float64, len(fields))
		for j := range fields {
			if i == j {
				values[i][j] = 1
				continue
			}
			if j < i {
				values[i][j] = values[j][i]
				continue
			}
			coeff, _, err := Correlate(series[i], series[j], 0, method)
			if err != nil {
				coeff = math.NaN()
			}
			values[i][j] = coeff
		}
	}

	return &CorrelationMatrix{Method: method, Fields: names, Values: values}
}
