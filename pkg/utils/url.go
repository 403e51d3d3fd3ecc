package utils

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL lowercases, adds protocol if missing, removes common prefixes and trailing slash.
func NormalizeURL(u string) string {
	n := strings.ToLower(strings.TrimSpace(u))
	if n == "" {
		return ""
	}
	if !schemeRe.MatchString(n) {
		n = "https://" + n
	}
	n = regexp.MustCompile(`^(https?://)www\.`).ReplaceAllString(n, "$1")
	return strings.TrimSuffix(n, "/")
}

// ExtractDomain returns just the host portion of a URL-like string, without
// port or a trailing dot.
func ExtractDomain(u string) string {
	n := NormalizeURL(u)
	if n == "" {
		return ""
	}
	parsed, err := url.Parse(n)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(parsed.Hostname(), ".")
}

// CountryLabel returns the right-most label of the host's public suffix, e.g.
// "uk" for www.example.co.uk and "au" for dominos.com.au. It is empty for bare
// hosts and IP addresses.
func CountryLabel(u string) string {
	host := ExtractDomain(u)
	if host == "" || !strings.Contains(host, ".") || isIP(host) {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	if idx := strings.LastIndex(suffix, "."); idx >= 0 {
		suffix = suffix[idx+1:]
	}
	return suffix
}

func isIP(host string) bool {
	return regexp.MustCompile(`^[0-9.]+$`).MatchString(host) || strings.Contains(host, ":")
}
