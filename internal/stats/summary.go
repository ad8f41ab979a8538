package stats

import (
	"math"
	"sort"

	"stochos/internal/model"
)

// Quantile levels reported in variable summaries.
var summaryQuantiles = []float64{0.05, 0.25, 0.5, 0.75, 0.95}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance is the unbiased sample variance.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	acc := 0.0
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values)-1)
}

func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Quantile interpolates linearly between order statistics. q is clamped
// to [0,1].
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Autocorrelation estimates the lag-k autocorrelation of an ordered sample
// series. Returns 0 when the series is too short or has no variance.
func Autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || n <= lag {
		return 0
	}
	mean := Mean(values)
	var num, den float64
	for i := 0; i < n; i++ {
		d := values[i] - mean
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := 0; i < n-lag; i++ {
		num += (values[i] - mean) * (values[i+lag] - mean)
	}
	return num / den
}

// HistogramBin is one bucket of a fixed-width histogram.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram buckets values into bins of equal width over the data range.
// A degenerate range collapses to a single bin.
func Histogram(values []float64, bins int) []HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []HistogramBin{{Low: lo, High: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i] = HistogramBin{Low: lo + float64(i)*width, High: lo + float64(i+1)*width}
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

// SummarizeVariable aggregates one traced series into the persistent
// summary shape.
func SummarizeVariable(name string, values []float64) model.VariableSummary {
	summary := model.VariableSummary{Name: name, Count: len(values)}
	if len(values) == 0 {
		return summary
	}
	summary.Mean = Mean(values)
	summary.StdDev = StdDev(values)
	summary.Min = values[0]
	summary.Max = values[0]
	for _, v := range values {
		if v < summary.Min {
			summary.Min = v
		}
		if v > summary.Max {
			summary.Max = v
		}
	}
	summary.Quantiles = make([]float64, len(summaryQuantiles))
	for i, q := range summaryQuantiles {
		summary.Quantiles[i] = Quantile(values, q)
	}
	summary.AutocorrLag = Autocorrelation(values, 1)
	return summary
}
