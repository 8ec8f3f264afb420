package features

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/phishguard/internal/entropy"
)

// ipv4Pattern matches a dotted-quad anywhere in the authority.
var ipv4Pattern = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)

// Normalization divisors for the ratio fields.
const (
	urlLengthScale    = 200
	domainLengthScale = 50
	specialCharsScale = 20
)

// Extract computes the feature vector of rawURL.
//
// rawURL is expected to carry a scheme already (see NormalizeURL). Extract is
// a pure function: the same input always produces a bit-identical Vector.
func Extract(rawURL string) Vector {
	var v Vector

	p := splitURL(rawURL)
	lower := strings.ToLower(rawURL)

	urlLen := utf8.RuneCountInString(rawURL)
	domainLen := utf8.RuneCountInString(p.authority)

	v[FieldURLLength] = float64(urlLen)
	v[FieldDomainLength] = float64(domainLen)
	v[FieldDotsInDomain] = count(p.authority, '.')
	v[FieldHyphensInDomain] = count(p.authority, '-')
	v[FieldUnderscoresInDomain] = count(p.authority, '_')
	v[FieldSlashes] = count(rawURL, '/')
	v[FieldEqualSigns] = count(rawURL, '=')
	v[FieldAtSymbols] = count(rawURL, '@')
	v[FieldExclamationMarks] = count(rawURL, '!')
	v[FieldSpaces] = count(rawURL, ' ')
	v[FieldDigits] = countDigits(rawURL)

	special := countSpecial(rawURL)
	v[FieldSpecialChars] = special

	v[FieldHasIP] = flag(ipv4Pattern.MatchString(p.authority))
	v[FieldHasPort] = flag(strings.Contains(p.authority, ":"))
	v[FieldUsesHTTPS] = flag(p.scheme == "https")

	v[FieldSubdomainCount] = count(p.authority, '.')
	v[FieldPathDepth] = float64(pathDepth(p.path))
	v[FieldQueryParams] = float64(queryParams(p.query))
	v[FieldFragmentLength] = float64(utf8.RuneCountInString(p.fragment))

	tld := tldOf(p.authority)
	v[FieldTLDLength] = float64(utf8.RuneCountInString(tld))

	v[FieldIsCommonDomain] = flag(IsCommonDomain(p.authority))
	v[FieldSuspiciousWords] = float64(suspiciousWordCount(lower))

	v[FieldURLEntropy] = entropy.Shannon(rawURL)
	v[FieldDomainEntropy] = entropy.Shannon(p.authority)
	v[FieldPathEntropy] = entropy.Shannon(p.path)
	v[FieldQueryEntropy] = entropy.Shannon(p.query)
	v[FieldFragmentEntropy] = entropy.Shannon(p.fragment)

	v[FieldHasRedirect] = flag(strings.Contains(lower, "redirect"))
	v[FieldHasClick] = flag(strings.Contains(lower, "click"))
	v[FieldHasTrack] = flag(strings.Contains(lower, "track"))
	v[FieldHasShortener] = flag(isShortener(hostOf(p.authority)))
	_, badTLD := suspiciousTLDs[strings.ToLower(tld)]
	v[FieldHasSuspiciousTLD] = flag(badTLD)

	v[FieldURLLengthNorm] = ratio(float64(urlLen), urlLengthScale)
	v[FieldDomainLengthNorm] = ratio(float64(domainLen), domainLengthScale)
	v[FieldSpecialCharsNorm] = ratio(special, specialCharsScale)

	return v
}

func count(s string, c byte) float64 {
	return float64(strings.Count(s, string(c)))
}

func countDigits(s string) float64 {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return float64(n)
}

func countSpecial(s string) float64 {
	n := 0
	for _, r := range s {
		if r < utf8.RuneSelf && strings.ContainsRune(specialChars, r) {
			n++
		}
	}
	return float64(n)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ratio(value, scale float64) float64 {
	return min(value/scale, 1.0)
}

// pathDepth counts the non-empty segments of path.
func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// queryParams counts the '&'-separated parts of a non-empty query.
func queryParams(query string) int {
	if query == "" {
		return 0
	}
	return strings.Count(query, "&") + 1
}

// tldOf returns the text after the last dot of the authority, or "" when the
// authority has no dot.
func tldOf(authority string) string {
	i := strings.LastIndexByte(authority, '.')
	if i < 0 {
		return ""
	}
	return authority[i+1:]
}

func suspiciousWordCount(lowerURL string) int {
	n := 0
	for _, w := range suspiciousWords {
		if strings.Contains(lowerURL, w) {
			n++
		}
	}
	return n
}

func isShortener(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range shortenerDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
