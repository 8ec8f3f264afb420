package classifier

import (
	"fmt"

	"github.com/nao1215/phishguard/internal/features"
)

// threshold is the probability above which a URL is labeled phishing.
const threshold = 0.5

// Model is an immutable scaler and forest pair.
type Model struct {
	scaler *Scaler
	forest *Forest
}

// NewModel validates and pairs a scaler with a forest. Both must have the
// same width.
func NewModel(scaler *Scaler, forest *Forest) (*Model, error) {
	if scaler == nil || forest == nil {
		return nil, fmt.Errorf("%w: nil scaler or forest", ErrMalformedForest)
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}
	if err := forest.Validate(); err != nil {
		return nil, err
	}
	if scaler.Width() != forest.Width {
		return nil, fmt.Errorf("%w: scaler has %d, forest has %d", ErrDimensionMismatch, scaler.Width(), forest.Width)
	}
	return &Model{scaler: scaler, forest: forest}, nil
}

// Scaler returns the model's scaler. Callers must not modify it.
func (m *Model) Scaler() *Scaler { return m.scaler }

// Forest returns the model's forest. Callers must not modify it.
func (m *Model) Forest() *Forest { return m.forest }

// Width returns the input width the model expects.
func (m *Model) Width() int { return m.forest.Width }

// Probability returns the phishing probability of a raw, unscaled input.
func (m *Model) Probability(x []float64) (float64, error) {
	scaled, err := m.scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return m.forest.PredictScaled(scaled)
}

// Predict labels v and returns the probability of the predicted class as
// the confidence. The label is phishing when the averaged probability
// exceeds 0.5.
func (m *Model) Predict(v features.Vector) (bool, float64, error) {
	p, err := m.Probability(v[:])
	if err != nil {
		return false, 0, err
	}
	if p > threshold {
		return true, p, nil
	}
	return false, 1 - p, nil
}
