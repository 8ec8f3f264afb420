package classifier

import (
	"fmt"
	"math"
)

// Scaler standardizes each field to zero mean and unit variance.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes per-column means and population standard deviations
// of rows. A column with zero deviation gets a scale of 1 so that it
// transforms to zero instead of dividing by zero.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to fit", ErrInsufficientSamples)
	}
	width := len(rows[0])
	mean := make([]float64, width)
	scale := make([]float64, width)

	for _, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row has %d values, want %d", ErrDimensionMismatch, len(row), width)
		}
		for j, x := range row {
			mean[j] += x
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range rows {
		for j, x := range row {
			d := x - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		std := math.Sqrt(scale[j] / n)
		if std == 0 {
			std = 1
		}
		scale[j] = std
	}

	return &Scaler{Mean: mean, Scale: scale}, nil
}

// Width returns the number of columns the scaler was fitted on.
func (s *Scaler) Width() int {
	return len(s.Mean)
}

// Transform returns the standardized copy of x.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.Width() {
		return nil, fmt.Errorf("%w: got %d, scaler has %d", ErrDimensionMismatch, len(x), s.Width())
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *Scaler) validate() error {
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("%w: scaler has %d means and %d scales", ErrDimensionMismatch, len(s.Mean), len(s.Scale))
	}
	for j, sc := range s.Scale {
		if sc == 0 || math.IsNaN(sc) || math.IsInf(sc, 0) {
			return fmt.Errorf("scaler column %d has invalid scale %v", j, sc)
		}
	}
	return nil
}
