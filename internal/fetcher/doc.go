// Package fetcher samples the visible text of a web page.
//
// The sample is an optional, best-effort side channel attached to a
// verdict. Every failure (network errors, timeouts, undecodable bodies) is
// absorbed: Sample then returns the URL itself. Requests are bounded by a
// timeout and a body size limit and can be routed through a SOCKS5 proxy.
package fetcher
