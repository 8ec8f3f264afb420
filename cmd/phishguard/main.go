// Package main provides the entry point for the PhishGuard CLI.
//
// PhishGuard scores URLs for phishing risk with a random forest trained on
// lexical URL features.
//
// Usage:
//
//	phishguard scan <url>
//	phishguard scan --list <file>
//	phishguard train
//	phishguard corpus add --phishing <url>
//
// See --help for all available options.
package main

// main is the entry point for PhishGuard.
func main() {
	Execute()
}
