package classifier

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/nao1215/phishguard/internal/features"
)

// separableSamples returns samples where phishing URLs carry an IP address
// and a long URL while legitimate ones do not.
func separableSamples() []Sample {
	var samples []Sample
	for i := range 30 {
		var phish, legit features.Vector
		phish[features.FieldHasIP] = 1
		phish[features.FieldURLLength] = float64(100 + i)
		phish[features.FieldSuspiciousWords] = float64(2 + i%3)
		legit[features.FieldUsesHTTPS] = 1
		legit[features.FieldURLLength] = float64(15 + i)
		legit[features.FieldIsCommonDomain] = float64(i % 2)
		samples = append(samples,
			Sample{Features: phish, Phishing: true},
			Sample{Features: legit, Phishing: false},
		)
	}
	return samples
}

func smallOptions() TrainOptions {
	opts := DefaultTrainOptions()
	opts.Trees = 25
	return opts
}

func TestScaler(t *testing.T) {
	t.Parallel()

	s, err := FitScaler([][]float64{
		{1, 5, 0},
		{3, 5, 4},
	})
	if err != nil {
		t.Fatalf("FitScaler: %v", err)
	}

	wantMean := []float64{2, 5, 2}
	wantScale := []float64{1, 1, 2}
	if !reflect.DeepEqual(s.Mean, wantMean) {
		t.Errorf("Mean = %v, want %v", s.Mean, wantMean)
	}
	if !reflect.DeepEqual(s.Scale, wantScale) {
		t.Errorf("Scale = %v, want %v", s.Scale, wantScale)
	}

	got, err := s.Transform([]float64{3, 5, 0})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := []float64{1, 0, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform = %v, want %v", got, want)
	}

	if _, err := s.Transform([]float64{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := FitScaler(nil); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("expected ErrInsufficientSamples, got %v", err)
	}
	if _, err := FitScaler([][]float64{{1, 2}, {1}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for ragged rows, got %v", err)
	}
}

func TestForestPredictScaled(t *testing.T) {
	t.Parallel()

	// x[0] <= 0 -> 0.2, else 0.9
	stump := Tree{Nodes: []Node{
		{Feature: 0, Threshold: 0, Left: 1, Right: 2},
		{Feature: leaf, Left: leaf, Right: leaf, Value: 0.2},
		{Feature: leaf, Left: leaf, Right: leaf, Value: 0.9},
	}}
	constant := Tree{Nodes: []Node{{Feature: leaf, Left: leaf, Right: leaf, Value: 0.5}}}
	f := &Forest{Width: 2, Trees: []Tree{stump, constant}}

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{name: "left branch", x: []float64{-1, 0}, want: 0.35},
		{name: "threshold goes left", x: []float64{0, 0}, want: 0.35},
		{name: "right branch", x: []float64{1, 0}, want: 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := f.PredictScaled(tt.x)
			if err != nil {
				t.Fatalf("PredictScaled: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("PredictScaled = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := f.PredictScaled([]float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if got := f.NodeCount(); got != 4 {
		t.Errorf("NodeCount = %d, want 4", got)
	}
}

func TestForestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		forest Forest
	}{
		{name: "no trees", forest: Forest{Width: 1}},
		{name: "zero width", forest: Forest{Width: 0, Trees: []Tree{{Nodes: []Node{{Feature: leaf}}}}}},
		{name: "empty tree", forest: Forest{Width: 1, Trees: []Tree{{}}}},
		{
			name: "feature out of range",
			forest: Forest{Width: 1, Trees: []Tree{{Nodes: []Node{
				{Feature: 3, Left: 1, Right: 2},
				{Feature: leaf}, {Feature: leaf},
			}}}},
		},
		{
			name: "child out of range",
			forest: Forest{Width: 1, Trees: []Tree{{Nodes: []Node{
				{Feature: 0, Left: 1, Right: 7},
				{Feature: leaf},
			}}}},
		},
		{
			name: "cycle back to root",
			forest: Forest{Width: 1, Trees: []Tree{{Nodes: []Node{
				{Feature: 0, Left: 0, Right: 1},
				{Feature: leaf},
			}}}},
		},
		{
			name: "probability above one",
			forest: Forest{Width: 1, Trees: []Tree{{Nodes: []Node{
				{Feature: leaf, Value: 1.5},
			}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.forest.Validate(); !errors.Is(err, ErrMalformedForest) {
				t.Errorf("expected ErrMalformedForest, got %v", err)
			}
		})
	}
}

func TestNewModelWidthMismatch(t *testing.T) {
	t.Parallel()

	scaler := &Scaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}}
	forest := &Forest{Width: 3, Trees: []Tree{{Nodes: []Node{{Feature: leaf, Value: 0.1}}}}}
	if _, err := NewModel(scaler, forest); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	t.Parallel()

	// A model trained on a narrower schema must reject full vectors.
	scaler := &Scaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}}
	forest := &Forest{Width: 3, Trees: []Tree{{Nodes: []Node{{Feature: leaf, Value: 0.1}}}}}
	m, err := NewModel(scaler, forest)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	_, _, err = m.Predict(features.Extract("http://example.com"))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestPredictConfidence(t *testing.T) {
	t.Parallel()

	scaler := &Scaler{Mean: make([]float64, features.Width), Scale: ones(features.Width)}
	tests := []struct {
		name           string
		value          float64
		wantPhishing   bool
		wantConfidence float64
	}{
		{name: "confident phishing", value: 0.9, wantPhishing: true, wantConfidence: 0.9},
		{name: "confident legitimate", value: 0.2, wantPhishing: false, wantConfidence: 0.8},
		{name: "exactly one half is legitimate", value: 0.5, wantPhishing: false, wantConfidence: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			forest := &Forest{Width: features.Width, Trees: []Tree{{Nodes: []Node{{Feature: leaf, Value: tt.value}}}}}
			m, err := NewModel(scaler, forest)
			if err != nil {
				t.Fatalf("NewModel: %v", err)
			}
			phishing, confidence, err := m.Predict(features.Vector{})
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if phishing != tt.wantPhishing {
				t.Errorf("phishing = %v, want %v", phishing, tt.wantPhishing)
			}
			if math.Abs(confidence-tt.wantConfidence) > 1e-12 {
				t.Errorf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
		})
	}
}

func TestTrain(t *testing.T) {
	t.Parallel()

	m, err := Train(context.Background(), separableSamples(), smallOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if m.Width() != features.Width {
		t.Fatalf("Width = %d, want %d", m.Width(), features.Width)
	}
	if got := len(m.Forest().Trees); got != 25 {
		t.Errorf("trees = %d, want 25", got)
	}

	var phish, legit features.Vector
	phish[features.FieldHasIP] = 1
	phish[features.FieldURLLength] = 120
	phish[features.FieldSuspiciousWords] = 3
	legit[features.FieldUsesHTTPS] = 1
	legit[features.FieldURLLength] = 20

	isPhishing, confidence, err := m.Predict(phish)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !isPhishing {
		t.Errorf("expected phishing verdict, confidence %v", confidence)
	}
	if confidence < 0.5 || confidence > 1 {
		t.Errorf("confidence %v outside [0.5, 1]", confidence)
	}

	isPhishing, _, err = m.Predict(legit)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if isPhishing {
		t.Error("expected legitimate verdict")
	}
}

func TestTrainDeterministic(t *testing.T) {
	t.Parallel()

	samples := separableSamples()
	opts := smallOptions()

	opts.Workers = 1
	a, err := Train(context.Background(), samples, opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	opts.Workers = 8
	b, err := Train(context.Background(), samples, opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !reflect.DeepEqual(a.Forest(), b.Forest()) {
		t.Error("same seed produced different forests")
	}
	if !reflect.DeepEqual(a.Scaler(), b.Scaler()) {
		t.Error("same samples produced different scalers")
	}

	opts.Seed = 7
	c, err := Train(context.Background(), samples, opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if reflect.DeepEqual(a.Forest(), c.Forest()) {
		t.Error("different seeds produced identical forests")
	}
}

func TestTrainRespectsLimits(t *testing.T) {
	t.Parallel()

	opts := smallOptions()
	opts.MaxDepth = 2
	m, err := Train(context.Background(), separableSamples(), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	for ti, tree := range m.Forest().Trees {
		// A binary tree of depth 2 has at most 7 nodes.
		if len(tree.Nodes) > 7 {
			t.Errorf("tree %d has %d nodes, exceeds depth 2", ti, len(tree.Nodes))
		}
	}
}

func TestTrainErrors(t *testing.T) {
	t.Parallel()

	onlyPhishing := []Sample{
		{Phishing: true}, {Phishing: true}, {Phishing: true},
	}
	if _, err := Train(context.Background(), onlyPhishing, smallOptions()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("expected ErrInsufficientSamples, got %v", err)
	}
	if _, err := Train(context.Background(), nil, smallOptions()); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("expected ErrInsufficientSamples for no samples, got %v", err)
	}

	bad := smallOptions()
	bad.Trees = 0
	if _, err := Train(context.Background(), separableSamples(), bad); !errors.Is(err, ErrInvalidTrainOptions) {
		t.Errorf("expected ErrInvalidTrainOptions, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Train(ctx, separableSamples(), smallOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
