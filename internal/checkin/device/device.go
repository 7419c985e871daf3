// Package device turns User-Agent headers into short device descriptions for
// scan records. Scanner clients at the entrance are browsers on phones or
// tablets; the raw header is too noisy to store.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a User-Agent header as a display string,
// e.g. "Chrome on Mac OS X". Empty input yields "Unknown Device".
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OSInfo().FullName
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
