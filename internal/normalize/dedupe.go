package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	extSuffix  = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|avif)$`)
	sizeSuffix = regexp.MustCompile(`(?i)-\d+x\d+$`)
	mlSuffix   = regexp.MustCompile(`(?i)-\d+ml$`)
	mgSuffix   = regexp.MustCompile(`(?i)-\d+mg$`)
)

// Uniq drops empty strings and repeats, keeping first occurrences in order.
func Uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// BaseKey returns the key two renditions of the same picture share: the file
// name without extension, size token or volume/strength suffix, lower-cased.
// ok is false for URLs that cannot be parsed.
func BaseKey(raw string) (key string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	path := u.EscapedPath()
	file := path[strings.LastIndexByte(path, '/')+1:]

	base := extSuffix.ReplaceAllString(file, "")
	base = sizeSuffix.ReplaceAllString(base, "")
	base = mlSuffix.ReplaceAllString(base, "")
	base = mgSuffix.ReplaceAllString(base, "")
	return strings.ToLower(base), true
}

// DedupeByBaseName keeps the first URL per BaseKey. Unparseable URLs are
// always kept.
func DedupeByBaseName(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		key, ok := BaseKey(u)
		if !ok {
			out = append(out, u)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}
