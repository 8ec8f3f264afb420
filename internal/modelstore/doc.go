// Package modelstore persists trained classifier models.
//
// A model is stored as two files, the forest and the scaler, each in a small
// versioned little-endian binary format:
//
//	magic   [4]byte  "PGFM" (forest) or "PGSC" (scaler)
//	version uint16
//	payload ...
//	digest  [32]byte SHA3-256 of magic, version and payload
//
// Forest payload: uint32 width, uint32 tree count, then per tree a uint32
// node count followed by nodes of (int32 feature, float64 threshold,
// int32 left, int32 right, float64 value).
//
// Scaler payload: uint32 width, width float64 means, width float64 scales.
//
// Files are written atomically through a temporary file and rename. Any
// problem reading them back is reported as ErrModelUnavailable so callers
// can fall back to retraining.
package modelstore
