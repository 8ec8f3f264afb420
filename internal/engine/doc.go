// Package engine wires feature extraction, the known-URL table, the
// classifier and the page-text sampler into a single scanning handle.
//
// An Engine is built once at startup around an immutable model and shared
// by all callers; Detect is safe for concurrent use. LoadOrTrain produces
// that model, retraining from a corpus provider when the stored model cannot
// be used.
package engine
