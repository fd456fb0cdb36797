package icons

import (
	"strings"

	"github.com/matzehuels/synopackage/pkg/cache"
)

// SkipRule bypasses icon downloads for a source whose thumbnail URLs
// contain a marker. Skipped packages get the default icon.
type SkipRule struct {
	Source      string `toml:"source"`
	URLContains string `toml:"url_contains"`
}

// Matches reports whether the rule applies to a download from source.
func (r SkipRule) Matches(source, url string) bool {
	return r.Source == source && r.URLContains != "" && strings.Contains(url, r.URLContains)
}

// DefaultSkipRules are used when no rules are configured. Tracking pixels
// served as thumbnails by synologyitalia time out more often than not.
var DefaultSkipRules = []SkipRule{
	{Source: "synologyitalia", URLContains: "piwik"},
}

// NormalizeURL makes a thumbnail reference absolute. URLs starting with
// "http" (any case) are kept; protocol-relative URLs get a scheme; bare
// host paths get a scheme and "//". The scheme is https unless useHTTPS is
// false. Blank input returns "".
func NormalizeURL(raw string, useHTTPS bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	scheme := "https"
	if !useHTTPS {
		scheme = "http"
	}
	switch {
	case len(raw) >= 4 && strings.EqualFold(raw[:4], "http"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return scheme + ":" + raw
	default:
		return scheme + "://" + raw
	}
}

// FileName returns the icon key for a package: "{source}_{name}.png" with
// characters illegal in file names removed. The extension is always .png
// whatever the stored format is.
func FileName(source, packageName string) string {
	return cache.CleanFileName(source + "_" + packageName + ".png")
}
