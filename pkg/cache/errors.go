package cache

import "strings"

// invalidFileNameChars are the characters rejected in a path segment on at
// least one supported platform.
const invalidFileNameChars = `<>:"/\|?*`

// CleanFileName strips characters that are illegal in a single path
// segment: the reserved set <>:"/\|?* and all control characters.
// Everything else, including spaces and non-ASCII letters, is kept.
func CleanFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidFileNameChars, r) {
			return -1
		}
		return r
	}, name)
}
