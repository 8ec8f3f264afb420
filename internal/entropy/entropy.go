// Package entropy computes Shannon entropy of strings.
//
// Entropy is measured in bits per symbol over the Unicode code points of
// the input, so "ab" has exactly 1 bit and any string made of a single
// repeated character has 0.
package entropy

import (
	"maps"
	"math"
	"slices"
)

// Shannon returns -Σ p·log2(p) over the code-point frequency distribution of s.
// The entropy of the empty string is 0.
func Shannon(s string) float64 {
	if s == "" {
		return 0
	}

	// ASCII is the common case for URLs; keep those counts on the stack.
	var ascii [128]int
	var wide map[rune]int
	total := 0

	for _, r := range s {
		total++
		if r < 128 {
			ascii[r]++
			continue
		}
		if wide == nil {
			wide = make(map[rune]int)
		}
		wide[r]++
	}

	n := float64(total)
	var h float64
	for _, count := range ascii {
		if count > 0 {
			p := float64(count) / n
			h -= p * math.Log2(p)
		}
	}
	// Sum in rune order so repeated calls are bit-identical.
	for _, r := range slices.Sorted(maps.Keys(wide)) {
		p := float64(wide[r]) / n
		h -= p * math.Log2(p)
	}

	return h
}
