// Package bucket derives single-character bucket keys from file names.
//
// A bucket key is the lowercased first character of the base name after an
// ordered set of stripping rules. Names that strip away entirely map to
// [Fallback] so every file always has a destination bucket.
package bucket

import (
	"path/filepath"
	"unicode"
	"unicode/utf8"
)

// Fallback is the bucket key used when a name has no characters left after
// stripping (e.g. a filename made solely of dots). An underscore directory
// sorts ahead of the letter buckets in most file browsers, keeping oddly
// named files visible.
const Fallback = "_"

// Key derives the bucket key for a base filename.
//
// With ignoreArticle off, one leading run of whitespace and period
// characters is stripped. With ignoreArticle on, one leading run of
// non-alphanumeric characters is stripped, then a case-insensitive "the"
// token when (and only when) it is followed by a non-alphanumeric run,
// then that run as well. The key is the lowercased first rune of whatever
// remains, or [Fallback] if nothing remains.
//
// Alphanumeric classification is ASCII-only; lowercasing still applies to
// non-ASCII first runes, so "Über.mkv" buckets under "ü".
func Key(basename string, ignoreArticle bool) string {
	name := basename
	if ignoreArticle {
		name = trimLeading(name, isNonAlnum)
		name = trimArticle(name)
	} else {
		name = trimLeading(name, func(r rune) bool { return r == '.' || unicode.IsSpace(r) })
	}
	if name == "" {
		return Fallback
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r))
}

// Keys derives bucket keys for a list of candidate paths, in order. The
// result always has exactly one key per path; callers consume the two
// slices pairwise.
func Keys(paths []string, ignoreArticle bool) []string {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = Key(filepath.Base(p), ignoreArticle)
	}
	return keys
}

// trimArticle strips a leading case-insensitive "the" token and the
// non-alphanumeric run that follows it. A "the" at the very end of the name
// or glued to an alphanumeric ("theater") is kept.
func trimArticle(name string) string {
	if len(name) < 4 {
		return name
	}
	if !equalFoldASCII(name[:3], "the") {
		return name
	}
	r, _ := utf8.DecodeRuneInString(name[3:])
	if !isNonAlnum(r) {
		return name
	}
	return trimLeading(name[3:], isNonAlnum)
}

// trimLeading removes the leading run of runes matching strip.
func trimLeading(s string, strip func(rune) bool) string {
	for i, r := range s {
		if !strip(r) {
			return s[i:]
		}
	}
	return ""
}

// isNonAlnum reports whether r is outside the ASCII alphanumeric range.
func isNonAlnum(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return false
	case r >= 'a' && r <= 'z':
		return false
	case r >= 'A' && r <= 'Z':
		return false
	}
	return true
}

// equalFoldASCII compares two same-length ASCII strings case-insensitively.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
