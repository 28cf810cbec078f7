package common

import (
	"net/url"
	"strings"
)

// TrimSlash removes trailing slashes so "https://react.dev/" and "https://react.dev" compare equal
func TrimSlash(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// HostOf returns the lowercase host of a URL, or "" when it cannot be parsed
func HostOf(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// SameURL reports whether two URLs point at the same page, ignoring trailing slashes and scheme case
func SameURL(a, b string) bool {
	pa, errA := url.Parse(strings.TrimSpace(a))
	pb, errB := url.Parse(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return TrimSlash(a) == TrimSlash(b)
	}
	return strings.EqualFold(pa.Scheme, pb.Scheme) &&
		strings.EqualFold(pa.Host, pb.Host) &&
		strings.TrimRight(pa.Path, "/") == strings.TrimRight(pb.Path, "/") &&
		pa.RawQuery == pb.RawQuery
}

// IsSelfLink reports whether href refers to the site home page itself.
// siteName is a bare host ("react.dev"), siteURL the configured home page.
func IsSelfLink(href, siteName, siteURL string) bool {
	trimmed := TrimSlash(href)
	if trimmed == "" {
		return false
	}
	if trimmed == siteName || SameURL(href, siteURL) {
		return true
	}
	// Home page on the same host under another scheme ("http://", "//")
	host := HostOf(trimmed)
	if host == "" || host != HostOf(siteURL) {
		return false
	}
	parsed, err := url.Parse(trimmed)
	return err == nil && parsed.Path == "" && parsed.RawQuery == ""
}

// ContainsHost reports whether href mentions host, case-insensitively
func ContainsHost(href, host string) bool {
	if host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(href), strings.ToLower(host))
}
