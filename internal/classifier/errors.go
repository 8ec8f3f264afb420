package classifier

import "errors"

var (
	// ErrDimensionMismatch is returned when an input vector's width differs
	// from the width the scaler or forest was trained on.
	ErrDimensionMismatch = errors.New("feature vector width does not match model width")

	// ErrInsufficientSamples is returned by Train when the samples do not
	// contain both classes.
	ErrInsufficientSamples = errors.New("training requires samples of both classes")

	// ErrInvalidTrainOptions is returned by Train for non-positive tree
	// counts or leaf sizes.
	ErrInvalidTrainOptions = errors.New("invalid training options")

	// ErrMalformedForest is returned when a forest has no trees, a node
	// references a feature outside the model width, or a child index is out
	// of range.
	ErrMalformedForest = errors.New("malformed forest")
)
