// Package extract finds candidate product-image URLs in raw HTML.
package extract

import (
	"net/url"
	"strings"
)

// Resolve resolves ref against base and returns the absolute URL. The second
// return value is false when either side is malformed or the result is not
// absolute.
func Resolve(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", false
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(refURL)
	if resolved.Scheme == "" {
		return "", false
	}
	return resolved.String(), true
}
