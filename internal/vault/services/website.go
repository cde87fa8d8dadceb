package services

import (
	"net/url"
	"strings"
)

// NormalizeWebsite reduces user input to the canonical domain used as the
// display/join key everywhere: URL host if present (else the raw string),
// lower-cased, leading "www." stripped, and defaultTLD appended when the
// result contains no dot. "https://www.Example.com/login" and "example.com"
// normalize identically.
func NormalizeWebsite(input, defaultTLD string) string {
	domain := strings.TrimSpace(input)

	if parsed, err := url.Parse(domain); err == nil && parsed.Host != "" {
		domain = parsed.Host
	}

	domain = strings.ToLower(domain)
	domain = strings.TrimPrefix(domain, "www.")

	if !strings.Contains(domain, ".") {
		domain += defaultTLD
	}
	return domain
}
