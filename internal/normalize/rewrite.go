// Package normalize turns extracted image URLs into the full-resolution,
// product-specific, de-duplicated list that gets downloaded.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"imagegrab/internal/sites"
)

// FullSize is the dimension token substituted into sized file names.
const FullSize = "1000x1000"

var sizedSuffix = regexp.MustCompile(`(?i)-\d+x\d+(\.[a-z]+)$`)

// Normalizer rewrites image URLs to their full-resolution variants.
type Normalizer struct {
	sites sites.Set
}

// NewNormalizer returns a Normalizer for the given profiles. A nil set uses
// sites.Default().
func NewNormalizer(set sites.Set) *Normalizer {
	if set == nil {
		set = sites.Default()
	}
	return &Normalizer{sites: set}
}

// Sites exposes the profile set the normalizer was built with.
func (n *Normalizer) Sites() sites.Set { return n.sites }

// Rewrite maps u to its full-resolution form. Malformed input comes back
// unchanged, and rewriting an already rewritten URL is a no-op.
func (n *Normalizer) Rewrite(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	changed := false

	if p, ok := n.sites.Lookup(u.Hostname()); ok && p.ResizeParam != "" {
		if q, ok := setQueryParam(u.RawQuery, p.ResizeParam, p.ResizeValue); ok {
			u.RawQuery = q
			changed = true
		}
	}

	escaped := u.EscapedPath()
	if rewritten := sizedSuffix.ReplaceAllString(escaped, "-"+FullSize+"$1"); rewritten != escaped {
		path, err := url.PathUnescape(rewritten)
		if err == nil {
			u.Path = path
			u.RawPath = rewritten
			changed = true
		}
	}

	if !changed {
		return raw
	}
	return u.String()
}

// RewriteAll applies Rewrite to every URL, preserving order.
func (n *Normalizer) RewriteAll(urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = n.Rewrite(u)
	}
	return out
}

// setQueryParam sets key=value in a raw query string when key is present.
// The first occurrence keeps its position; later occurrences are dropped.
// The bool result is false when the query had no such key or already held
// exactly key=value once.
func setQueryParam(rawQuery, key, value string) (string, bool) {
	if rawQuery == "" {
		return rawQuery, false
	}
	pairs := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(pairs))
	found := 0
	untouched := true
	for _, pair := range pairs {
		k, v, _ := strings.Cut(pair, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if k != key {
			out = append(out, pair)
			continue
		}
		found++
		if found > 1 {
			untouched = false
			continue
		}
		if uv, err := url.QueryUnescape(v); err != nil || uv != value {
			untouched = false
		}
		out = append(out, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}
	if found == 0 || untouched {
		return rawQuery, false
	}
	return strings.Join(out, "&"), true
}
