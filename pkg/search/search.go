// Package search filters catalog packages by keyword and orders them
// deterministically.
package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/synopackage/pkg/spk"
)

// Matches reports whether keyword is a case-insensitive substring of the
// package name, display name or description, checked in that order. A blank
// keyword matches everything.
func Matches(p spk.RawPackage, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return true
	}
	k := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(p.Package), k) ||
		strings.Contains(strings.ToLower(p.DisplayName), k) ||
		strings.Contains(strings.ToLower(p.Description), k)
}

// Filter returns the packages matching keyword in their original order.
// The result is never nil.
func Filter(pkgs []spk.RawPackage, keyword string) []spk.RawPackage {
	out := make([]spk.RawPackage, 0, len(pkgs))
	for _, p := range pkgs {
		if Matches(p, keyword) {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders packages by name using byte-wise comparison. Equal names are
// ordered by version, display name and then description, so the result
// does not depend on the input order.
func Sort(pkgs []spk.RawPackage) {
	slices.SortStableFunc(pkgs, func(a, b spk.RawPackage) int {
		return cmp.Or(
			strings.Compare(a.Package, b.Package),
			strings.Compare(a.Version, b.Version),
			strings.Compare(a.DisplayName, b.DisplayName),
			strings.Compare(a.Description, b.Description),
		)
	})
}

// FilterSort filters pkgs by keyword and returns the matches sorted by name.
// The input slice is not modified.
func FilterSort(pkgs []spk.RawPackage, keyword string) []spk.RawPackage {
	out := Filter(pkgs, keyword)
	Sort(out)
	return out
}
