package features

import "strings"

// specialChars is the fixed punctuation set counted by FieldSpecialChars.
const specialChars = "!@#$%^&*()+={}[]|\\:;\"'<>,.?/~`"

// commonDomains is the legitimate-domain allowlist. Membership is an exact,
// case-insensitive match against the whole authority, so "www.google.com"
// is not a member while "google.com" is.
var commonDomains = map[string]struct{}{
	"google.com": {}, "facebook.com": {}, "amazon.com": {}, "microsoft.com": {},
	"apple.com": {}, "netflix.com": {}, "youtube.com": {}, "twitter.com": {},
	"instagram.com": {}, "linkedin.com": {}, "github.com": {}, "stackoverflow.com": {},
	"reddit.com": {}, "wikipedia.org": {}, "yahoo.com": {}, "bing.com": {},
	"dropbox.com": {}, "spotify.com": {}, "discord.com": {}, "telegram.org": {},
	"whatsapp.com": {}, "snapchat.com": {}, "tiktok.com": {}, "uber.com": {},
	"lyft.com": {}, "airbnb.com": {}, "booking.com": {}, "expedia.com": {},
	"hotels.com": {}, "trivago.com": {}, "agoda.com": {}, "tripadvisor.com": {},
	"yelp.com": {}, "zomato.com": {}, "doordash.com": {}, "grubhub.com": {},
	"ubereats.com": {}, "postmates.com": {}, "instacart.com": {}, "amazonfresh.com": {},
	"wholefoods.com": {}, "walmart.com": {}, "target.com": {}, "costco.com": {},
	"bestbuy.com": {}, "homedepot.com": {}, "lowes.com": {}, "ikea.com": {},
	"wayfair.com": {}, "etsy.com": {}, "shopify.com": {}, "woocommerce.com": {},
}

// suspiciousWords are matched as case-insensitive substrings of the full URL.
// Each word counts at most once.
var suspiciousWords = []string{
	"secure", "account", "banking", "login", "signin", "verify", "update",
	"confirm", "billing", "paypal", "ebay", "amazon", "apple", "google",
	"facebook", "twitter", "instagram", "linkedin", "youtube", "netflix",
}

// shortenerDomains are URL-shortening services. A host matches when it is
// the domain itself or one of its subdomains.
var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd",
}

// suspiciousTLDs are free or heavily abused top-level domains.
var suspiciousTLDs = map[string]struct{}{
	"tk": {}, "ml": {}, "ga": {}, "cf": {}, "gq": {},
}

// IsCommonDomain reports whether authority is on the allowlist.
func IsCommonDomain(authority string) bool {
	_, ok := commonDomains[strings.ToLower(authority)]
	return ok
}

// CommonDomains returns the allowlist entries. The order is unspecified.
func CommonDomains() []string {
	out := make([]string, 0, len(commonDomains))
	for d := range commonDomains {
		out = append(out, d)
	}
	return out
}
