package spider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// eventURLPatterns mark URLs that likely point at event or calendar pages.
// Matching links jump to the priority queue.
var eventURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/events?/`),
	regexp.MustCompile(`/calendar/`),
	regexp.MustCompile(`/event-details/`),
	regexp.MustCompile(`/registration/`),
	regexp.MustCompile(`/programs/`),
	regexp.MustCompile(`/activities/`),
	regexp.MustCompile(`localist\.com`),
	regexp.MustCompile(`eventbrite\.com`),
	regexp.MustCompile(`facebook\.com/events`),
	regexp.MustCompile(`meetup\.com`),
}

// NormalizeURL standardizes a URL so the visited set never sees the same
// page twice under different spellings. It lowercases scheme and host,
// strips default ports and fragments, and sorts query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// ResolveRef resolves an href against its page URL. Empty string means the
// link is unusable (mailto, tel, javascript, or malformed).
func ResolveRef(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"mailto:", "tel:", "javascript:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := b.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// Host extracts the lowercase hostname, or "" for malformed input.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SameHost reports whether two URLs share a hostname.
func SameHost(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}

// IsEventLike reports whether a URL's shape suggests an event page.
func IsEventLike(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range eventURLPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
