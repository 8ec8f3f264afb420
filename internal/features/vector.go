package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Vector is the ordered feature vector of one URL. It is a value type: copies
// are independent and a Vector is never modified after Extract returns it.
type Vector [Width]float64

// Get returns the value of field f.
func (v Vector) Get(f Field) float64 {
	return v[f]
}

// Slice returns a copy of the vector as a slice, the form the classifier
// consumes.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by field name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Width)
	for i, name := range fieldNames {
		m[name] = v[i]
	}
	return m
}

// FromSlice builds a Vector from values in schema order.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Width {
		return v, fmt.Errorf("feature vector has %d values, schema has %d", len(values), Width)
	}
	copy(v[:], values)
	return v, nil
}

// MarshalJSON encodes the vector as an object whose keys follow schema order.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range fieldNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(v[i], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object produced by MarshalJSON. Unknown keys are
// rejected so a vector from a different schema is never silently accepted.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Vector
	seen := 0
	for i, name := range fieldNames {
		val, ok := m[name]
		if !ok {
			continue
		}
		out[i] = val
		seen++
	}
	if seen != len(m) {
		return fmt.Errorf("feature vector contains %d unknown fields", len(m)-seen)
	}
	*v = out
	return nil
}
