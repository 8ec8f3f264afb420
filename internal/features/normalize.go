package features

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeURL trims surrounding whitespace and prefixes "http://" when the
// URL does not start with http:// or https://.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return u
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "http://" + u
}

// Host returns the lower-cased host of rawURL without userinfo or port.
func Host(rawURL string) string {
	return hostOf(splitURL(rawURL).authority)
}

// RegisteredDomain returns the registrable domain (eTLD+1) of rawURL's host,
// e.g. "example.co.uk" for "https://login.example.co.uk/". It returns the
// host itself when no registrable domain exists (IP literals, bare suffixes).
// It is informational only and never feeds the model.
func RegisteredDomain(rawURL string) string {
	host := Host(rawURL)
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
