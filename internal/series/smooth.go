// v1
// internal/series/smooth.go
package series

import (
	"fmt"
	"math"

	"rotctools/attendance/internal/attendance"
)

// MovingAverage computes a trailing moving average: the output at index i
// is the mean of the inputs in the inclusive window [max(0, i-window+1), i].
// Early points average over the samples available so far, so the output
// keeps the input length and output[0] equals input[0]. A window below one
// aborts with ErrInvalidArgument; non-finite samples abort with
// ErrInvalidInput.
func MovingAverage(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("smoothing window %d: %w", window, attendance.ErrInvalidArgument)
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sample %d is not a finite number: %w", i, attendance.ErrInvalidInput)
		}
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		span := i + 1
		if span > window {
			span = window
		}
		out[i] = sum / float64(span)
	}
	return out, nil
}

// Bundle groups the chart series served together, one sample per label.
type Bundle struct {
	Labels  []string
	Present []float64
	FTR     []float64
	Excused []float64
}

// Smooth applies the same trailing window to every series in the bundle.
func (b Bundle) Smooth(window int) (Bundle, error) {
	present, err := MovingAverage(b.Present, window)
	if err != nil {
		return Bundle{}, fmt.Errorf("present series: %w", err)
	}
	ftr, err := MovingAverage(b.FTR, window)
	if err != nil {
		return Bundle{}, fmt.Errorf("ftr series: %w", err)
	}
	excused, err := MovingAverage(b.Excused, window)
	if err != nil {
		return Bundle{}, fmt.Errorf("excused series: %w", err)
	}
	labels := make([]string, len(b.Labels))
	copy(labels, b.Labels)
	return Bundle{Labels: labels, Present: present, FTR: ftr, Excused: excused}, nil
}
