// Package verdict turns a classifier decision into the user-facing result:
// a risk score, a risk level and the Verdict record.
package verdict

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/phishguard/internal/features"
)

// RiskLevel is a coarse bucket of risk.
type RiskLevel int

const (
	// RiskUnknown is used when no decision could be made.
	RiskUnknown RiskLevel = iota
	// RiskLow means the URL is most likely safe.
	RiskLow
	// RiskMedium means the URL deserves caution.
	RiskMedium
	// RiskHigh means the URL is most likely phishing.
	RiskHigh
)

var riskLevelNames = map[RiskLevel]string{
	RiskUnknown: "Unknown",
	RiskLow:     "Low",
	RiskMedium:  "Medium",
	RiskHigh:    "High",
}

// String returns "Low", "Medium", "High" or "Unknown".
func (r RiskLevel) String() string {
	if s, ok := riskLevelNames[r]; ok {
		return s
	}
	return "Unknown"
}

// MarshalJSON encodes the level by name.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a level name, case-insensitively.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*r = level
	return nil
}

// ParseRiskLevel parses a level name.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for level, name := range riskLevelNames {
		if strings.EqualFold(name, s) {
			return level, nil
		}
	}
	return RiskUnknown, fmt.Errorf("unknown risk level %q", s)
}

// Source records what produced a verdict.
type Source string

const (
	// SourceModel is a verdict computed by the classifier.
	SourceModel Source = "model"
	// SourceReference is a verdict taken from the known-URL table.
	SourceReference Source = "reference"
	// SourceFallback is the safe default returned after an internal failure.
	SourceFallback Source = "fallback"
)

// Verdict is the result of scanning one URL.
type Verdict struct {
	URL             string           `json:"url"`
	IsPhishing      bool             `json:"is_phishing"`
	ConfidenceScore float64          `json:"confidence_score"`
	RiskScore       float64          `json:"risk_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	Features        *features.Vector `json:"features"`
	TextContent     string           `json:"text_content"`
	Source          Source           `json:"source"`
	ScannedAt       time.Time        `json:"scanned_at"`
}

// RiskScore combines the classifier decision with a few high-signal
// features. The result is clamped to [0, 1].
//
// For a phishing decision:
//
//	0.6*c + 0.1*has_ip + 0.1*has_suspicious_tld + 0.1*has_shortener + 0.1*suspicious_words/10
//
// For a legitimate decision:
//
//	0.6*(1-c) + 0.2*is_common_domain + 0.2*uses_https
func RiskScore(phishing bool, confidence float64, v features.Vector) float64 {
	var score float64
	if phishing {
		score = 0.6*confidence +
			0.1*v.Get(features.FieldHasIP) +
			0.1*v.Get(features.FieldHasSuspiciousTLD) +
			0.1*v.Get(features.FieldHasShortener) +
			0.1*v.Get(features.FieldSuspiciousWords)/10
	} else {
		score = 0.6*(1-confidence) +
			0.2*v.Get(features.FieldIsCommonDomain) +
			0.2*v.Get(features.FieldUsesHTTPS)
	}
	return min(max(score, 0), 1)
}

// RiskLevelFromScore buckets a risk score: above 0.7 is High, above 0.4 is
// Medium, anything else Low.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score > 0.7:
		return RiskHigh
	case score > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskLevelFromConfidencePercentage buckets a confidence percentage for
// display: above 85 is Low, above 50 is Medium, anything else High. It is
// independent of RiskLevelFromScore and is reported alongside it.
func RiskLevelFromConfidencePercentage(pct float64) RiskLevel {
	switch {
	case pct > 85:
		return RiskLow
	case pct > 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ConfidencePercentage converts a confidence in [0, 1] to a percentage
// rounded to one decimal place.
func ConfidencePercentage(confidence float64) float64 {
	return float64(int64(confidence*1000+0.5)) / 10
}

// Build assembles a verdict from a classifier decision.
func Build(url string, phishing bool, confidence float64, v features.Vector, source Source) *Verdict {
	score := RiskScore(phishing, confidence, v)
	return &Verdict{
		URL:             url,
		IsPhishing:      phishing,
		ConfidenceScore: confidence,
		RiskScore:       score,
		RiskLevel:       RiskLevelFromScore(score),
		Features:        &v,
		TextContent:     url,
		Source:          source,
		ScannedAt:       time.Now().UTC(),
	}
}

// SafeDefault is the verdict returned when scanning failed internally. It
// carries no features and no text.
func SafeDefault(url string) *Verdict {
	return &Verdict{
		URL:       url,
		RiskLevel: RiskUnknown,
		Source:    SourceFallback,
		ScannedAt: time.Now().UTC(),
	}
}

// ConfidencePercentage returns the verdict confidence as a percentage.
func (v *Verdict) ConfidencePercentage() float64 {
	return ConfidencePercentage(v.ConfidenceScore)
}

// DisplayRiskLevel returns the confidence-percentage bucket of the verdict.
// The unrounded percentage is compared; rounding is for printing only.
func (v *Verdict) DisplayRiskLevel() RiskLevel {
	if v.Source == SourceFallback {
		return RiskUnknown
	}
	return RiskLevelFromConfidencePercentage(v.ConfidenceScore * 100)
}
