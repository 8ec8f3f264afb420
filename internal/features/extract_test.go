package features

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want map[Field]float64
	}{
		{
			name: "well-known site over https",
			url:  "https://www.google.com/",
			want: map[Field]float64{
				FieldURLLength:        23,
				FieldDomainLength:     14,
				FieldDotsInDomain:     2,
				FieldHyphensInDomain:  0,
				FieldSlashes:          3,
				FieldSpecialChars:     6,
				FieldHasIP:            0,
				FieldHasPort:          0,
				FieldUsesHTTPS:        1,
				FieldSubdomainCount:   2,
				FieldPathDepth:        0,
				FieldQueryParams:      0,
				FieldFragmentLength:   0,
				FieldTLDLength:        3,
				FieldIsCommonDomain:   0,
				FieldSuspiciousWords:  1,
				FieldHasShortener:     0,
				FieldURLLengthNorm:    0.115,
				FieldDomainLengthNorm: 0.28,
				FieldSpecialCharsNorm: 0.3,
			},
		},
		{
			name: "IPv4 authority with port, query and fragment",
			url:  "http://192.168.1.1:8080/login?user=a&pass=b#top",
			want: map[Field]float64{
				FieldHasIP:            1,
				FieldHasPort:          1,
				FieldUsesHTTPS:        0,
				FieldPathDepth:        1,
				FieldQueryParams:      2,
				FieldFragmentLength:   3,
				FieldEqualSigns:       2,
				FieldTLDLength:        6,
				FieldHasSuspiciousTLD: 0,
				FieldSuspiciousWords:  1,
			},
		},
		{
			name: "suspicious TLD with tracking words",
			url:  "http://free-prize.tk/redirect?click=track",
			want: map[Field]float64{
				FieldHasSuspiciousTLD: 1,
				FieldHasRedirect:      1,
				FieldHasClick:         1,
				FieldHasTrack:         1,
				FieldHyphensInDomain:  1,
				FieldTLDLength:        2,
				FieldQueryParams:      1,
			},
		},
		{
			name: "upper-case suspicious TLD",
			url:  "http://PRIZE.TK/",
			want: map[Field]float64{
				FieldHasSuspiciousTLD: 1,
			},
		},
		{
			name: "shortener domain",
			url:  "https://bit.ly/3xYz",
			want: map[Field]float64{
				FieldHasShortener: 1,
				FieldPathDepth:    1,
			},
		},
		{
			name: "shortener subdomain",
			url:  "https://www.tinyurl.com/abc",
			want: map[Field]float64{
				FieldHasShortener: 1,
			},
		},
		{
			name: "shortener name inside another host does not count",
			url:  "https://microsoft.com/",
			want: map[Field]float64{
				FieldHasShortener:   0,
				FieldIsCommonDomain: 1,
			},
		},
		{
			name: "allowlist match is case-insensitive",
			url:  "https://GitHub.com/nao1215",
			want: map[Field]float64{
				FieldIsCommonDomain: 1,
			},
		},
		{
			name: "userinfo colon counts as a port",
			url:  "http://user:pw@evil.example/",
			want: map[Field]float64{
				FieldHasPort:   1,
				FieldAtSymbols: 1,
			},
		},
		{
			name: "multiple suspicious words count once each",
			url:  "http://paypal-login.secure-authenticate.com",
			want: map[Field]float64{
				FieldSuspiciousWords: 3,
				FieldPathDepth:       0,
				FieldHyphensInDomain: 2,
			},
		},
		{
			name: "normalized ratios are clamped",
			url:  "http://" + strings.Repeat("a", 300) + ".com/" + strings.Repeat("!", 30),
			want: map[Field]float64{
				FieldURLLengthNorm:    1,
				FieldDomainLengthNorm: 1,
				FieldSpecialCharsNorm: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := Extract(tt.url)
			for field, want := range tt.want {
				if got := v.Get(field); !approxEqual(got, want) {
					t.Errorf("%s = %v, want %v", field, got, want)
				}
			}
		})
	}
}

func TestExtractMalformedInput(t *testing.T) {
	t.Parallel()

	t.Run("empty string yields the zero vector", func(t *testing.T) {
		t.Parallel()

		if v := Extract(""); v != (Vector{}) {
			t.Errorf("expected zero vector, got %v", v)
		}
	})

	t.Run("inputs net/url rejects still produce a vector", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"http://[::1",
			"http://exa mple.com/%zz",
			"not a url at all",
			"://",
			"http://",
			"https://?#",
			"\t\n http://example.com",
		}
		for _, in := range inputs {
			v := Extract(in)
			if v.Get(FieldURLLength) <= 0 {
				t.Errorf("Extract(%q): expected positive url_length", in)
			}
		}
	})

	t.Run("missing authority degrades to zero", func(t *testing.T) {
		t.Parallel()

		v := Extract("not a url at all")
		if v.Get(FieldDomainLength) != 0 {
			t.Errorf("expected domain_length 0, got %v", v.Get(FieldDomainLength))
		}
		if v.Get(FieldDomainEntropy) != 0 {
			t.Errorf("expected domain_entropy 0, got %v", v.Get(FieldDomainEntropy))
		}
		if v.Get(FieldTLDLength) != 0 {
			t.Errorf("expected tld_length 0, got %v", v.Get(FieldTLDLength))
		}
	})
}

func TestExtractIsPure(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://www.google.com/",
		"http://paypal-login.secure-authenticate.com",
		"http://exämple.com/päth?q=ü#frägment",
	}
	for _, u := range urls {
		first := Extract(u)
		for range 10 {
			if got := Extract(u); got != first {
				t.Fatalf("Extract(%q) is not deterministic", u)
			}
		}
	}
}

func TestExtractFieldDomains(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://www.google.com/",
		"http://192.168.1.1/admin",
		"http://paypal-login.secure-authenticate.com",
		"https://bit.ly/abc?utm=1&x=2#frag",
		"http://a_b-c.d.e.f.tk:8080/very/deep/path/to/somewhere?x=1",
		"http://" + strings.Repeat("x", 500),
		"",
		"garbage",
	}

	for _, u := range urls {
		v := Extract(u)
		if len(v) != Width {
			t.Fatalf("vector width = %d, want %d", len(v), Width)
		}
		for _, f := range Fields() {
			val := v.Get(f)
			switch f.Kind() {
			case KindFlag:
				if val != 0 && val != 1 {
					t.Errorf("%q: flag %s = %v, want 0 or 1", u, f, val)
				}
			case KindRatio:
				if val < 0 || val > 1 {
					t.Errorf("%q: ratio %s = %v, want within [0,1]", u, f, val)
				}
			case KindEntropy:
				if val < 0 {
					t.Errorf("%q: entropy %s = %v, want >= 0", u, f, val)
				}
			case KindCount:
				if val < 0 || val != math.Trunc(val) {
					t.Errorf("%q: count %s = %v, want non-negative integer", u, f, val)
				}
			}
		}
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	names := Names()
	if len(names) != Width {
		t.Fatalf("Names() has %d entries, want %d", len(names), Width)
	}

	seen := make(map[string]bool)
	for i, name := range names {
		if name == "" {
			t.Errorf("field %d has no name", i)
		}
		if seen[name] {
			t.Errorf("duplicate field name %q", name)
		}
		seen[name] = true
	}

	if FieldURLLength.String() != "url_length" {
		t.Errorf("first field = %q, want url_length", FieldURLLength)
	}
	if FieldSpecialCharsNorm.String() != "special_chars_norm" {
		t.Errorf("last field = %q, want special_chars_norm", FieldSpecialCharsNorm)
	}
	if Field(Width).String() != "unknown" {
		t.Errorf("out-of-range field should be unknown")
	}
}

func TestVectorJSON(t *testing.T) {
	t.Parallel()

	v := Extract("http://192.168.1.1:8080/login?user=a&pass=b#top")

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Keys must appear in schema order.
	prev := -1
	for _, name := range Names() {
		idx := strings.Index(string(data), `"`+name+`"`)
		if idx < 0 {
			t.Fatalf("key %q missing from %s", name, data)
		}
		if idx < prev {
			t.Fatalf("key %q out of schema order", name)
		}
		prev = idx
	}

	var decoded Vector
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != v {
		t.Error("decoded vector differs from original")
	}

	if err := json.Unmarshal([]byte(`{"not_a_feature": 1}`), &decoded); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestFromSlice(t *testing.T) {
	t.Parallel()

	if _, err := FromSlice(make([]float64, Width-1)); err == nil {
		t.Error("expected error for short slice")
	}

	v := Extract("https://example.com/")
	back, err := FromSlice(v.Slice())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if back != v {
		t.Error("FromSlice(Slice()) changed the vector")
	}
}
