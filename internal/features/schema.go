package features

// Field identifies one position in a Vector.
type Field int

// The numbered feature schema. Values are indexes into Vector.
const (
	FieldURLLength           Field = iota // 0: code points in the URL
	FieldDomainLength                     // 1: code points in the authority
	FieldDotsInDomain                     // 2
	FieldHyphensInDomain                  // 3
	FieldUnderscoresInDomain              // 4
	FieldSlashes                          // 5: '/' anywhere in the URL
	FieldEqualSigns                       // 6
	FieldAtSymbols                        // 7
	FieldExclamationMarks                 // 8
	FieldSpaces                           // 9
	FieldDigits                           // 10
	FieldSpecialChars                     // 11
	FieldHasIP                            // 12
	FieldHasPort                          // 13
	FieldUsesHTTPS                        // 14
	FieldSubdomainCount                   // 15
	FieldPathDepth                        // 16
	FieldQueryParams                      // 17
	FieldFragmentLength                   // 18
	FieldTLDLength                        // 19
	FieldIsCommonDomain                   // 20
	FieldSuspiciousWords                  // 21
	FieldURLEntropy                       // 22
	FieldDomainEntropy                    // 23
	FieldPathEntropy                      // 24
	FieldQueryEntropy                     // 25
	FieldFragmentEntropy                  // 26
	FieldHasRedirect                      // 27
	FieldHasClick                         // 28
	FieldHasTrack                         // 29
	FieldHasShortener                     // 30
	FieldHasSuspiciousTLD                 // 31
	FieldURLLengthNorm                    // 32
	FieldDomainLengthNorm                 // 33
	FieldSpecialCharsNorm                 // 34

	fieldCount
)

// Width is the number of fields in every Vector.
const Width = int(fieldCount)

var fieldNames = [Width]string{
	FieldURLLength:           "url_length",
	FieldDomainLength:        "domain_length",
	FieldDotsInDomain:        "dots_in_domain",
	FieldHyphensInDomain:     "hyphens_in_domain",
	FieldUnderscoresInDomain: "underscores_in_domain",
	FieldSlashes:             "slashes_in_path",
	FieldEqualSigns:          "equal_signs",
	FieldAtSymbols:           "at_symbols",
	FieldExclamationMarks:    "exclamation_marks",
	FieldSpaces:              "spaces",
	FieldDigits:              "digits",
	FieldSpecialChars:        "special_chars",
	FieldHasIP:               "has_ip",
	FieldHasPort:             "has_port",
	FieldUsesHTTPS:           "uses_https",
	FieldSubdomainCount:      "subdomain_count",
	FieldPathDepth:           "path_depth",
	FieldQueryParams:         "query_params",
	FieldFragmentLength:      "fragment_length",
	FieldTLDLength:           "tld_length",
	FieldIsCommonDomain:      "is_common_domain",
	FieldSuspiciousWords:     "suspicious_words",
	FieldURLEntropy:          "url_entropy",
	FieldDomainEntropy:       "domain_entropy",
	FieldPathEntropy:         "path_entropy",
	FieldQueryEntropy:        "query_entropy",
	FieldFragmentEntropy:     "fragment_entropy",
	FieldHasRedirect:         "has_redirect",
	FieldHasClick:            "has_click",
	FieldHasTrack:            "has_track",
	FieldHasShortener:        "has_shortener",
	FieldHasSuspiciousTLD:    "has_suspicious_tld",
	FieldURLLengthNorm:       "url_length_norm",
	FieldDomainLengthNorm:    "domain_length_norm",
	FieldSpecialCharsNorm:    "special_chars_norm",
}

// String returns the schema name of the field, e.g. "has_ip".
func (f Field) String() string {
	if f < 0 || int(f) >= Width {
		return "unknown"
	}
	return fieldNames[f]
}

// Kind describes the numeric domain of a field.
type Kind int

const (
	// KindCount is a non-negative integer count or length.
	KindCount Kind = iota
	// KindFlag is 0 or 1.
	KindFlag
	// KindEntropy is a non-negative entropy in bits per symbol.
	KindEntropy
	// KindRatio is a normalized value in [0, 1].
	KindRatio
)

// Kind returns the numeric domain of the field.
func (f Field) Kind() Kind {
	switch f {
	case FieldHasIP, FieldHasPort, FieldUsesHTTPS, FieldIsCommonDomain,
		FieldHasRedirect, FieldHasClick, FieldHasTrack, FieldHasShortener,
		FieldHasSuspiciousTLD:
		return KindFlag
	case FieldURLEntropy, FieldDomainEntropy, FieldPathEntropy,
		FieldQueryEntropy, FieldFragmentEntropy:
		return KindEntropy
	case FieldURLLengthNorm, FieldDomainLengthNorm, FieldSpecialCharsNorm:
		return KindRatio
	default:
		return KindCount
	}
}

// Names returns the field names in schema order.
func Names() []string {
	names := make([]string, Width)
	copy(names, fieldNames[:])
	return names
}

// Fields returns every field in schema order.
func Fields() []Field {
	fields := make([]Field, Width)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}
